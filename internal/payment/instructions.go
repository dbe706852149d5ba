package payment

import (
	"strings"

	"novalnet-checkout/internal/basket"
	"novalnet-checkout/internal/method"
)

// InstructionMap holds what the customer still has to do after an order
// settled with a pending or on-hold status.
var InstructionMap = map[string][]string{
	method.Invoice: {
		"Please transfer {{amount}} {{currency}} to the account below",
		"Account holder: {{invoice_account_holder}}",
		"IBAN: {{invoice_iban}}",
		"BIC: {{invoice_bic}}",
		"Use the reference TID {{tid}} so the payment can be matched",
	},
	method.Prepayment: {
		"Your order ships once {{amount}} {{currency}} has been received",
		"Account holder: {{invoice_account_holder}}",
		"IBAN: {{invoice_iban}}",
		"BIC: {{invoice_bic}}",
		"Use the reference TID {{tid}} so the payment can be matched",
	},
	method.CashPayment: {
		"Print or show the payment slip at a partner store",
		"Pay {{amount}} {{currency}} in cash at the counter",
		"Keep the receipt until the order is confirmed",
	},
	method.SEPA: {
		"{{amount}} {{currency}} will be debited from your account",
		"The debit shows the reference TID {{tid}}",
	},
}

func GetInstructions(methodID string) []string {
	if steps, ok := InstructionMap[methodID]; ok {
		return steps
	}
	return nil
}

type InstructionVars map[string]string

// VarsFromPayload collects the placeholders used by InstructionMap from a
// gateway response. The amount is rendered with two decimals.
func VarsFromPayload(p Payload, amount int64) InstructionVars {
	vars := InstructionVars{
		"amount":   basket.FormatMinor(amount),
		"currency": p.Get(FieldCurrency),
		"tid":      p.Get(FieldTID),
	}
	for _, key := range []string{"invoice_account_holder", "invoice_iban", "invoice_bic"} {
		vars[key] = p.Get(key)
	}
	return vars
}

func InjectVariables(steps []string, vars InstructionVars) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(updated, "{{"+key+"}}", value)
		}
		result = append(result, updated)
	}

	return result
}
