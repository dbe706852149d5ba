package method

// Defaults returns the Novalnet methods offered at checkout.
func Defaults() []Method {
	return []Method{
		{
			ID: Invoice, DisplayName: "Invoice", Flow: FlowDirect,
			Params: map[string]string{"key": "27", "payment_type": "INVOICE_START", "invoice_type": "INVOICE"},
		},
		{
			ID: Prepayment, DisplayName: "Prepayment", Flow: FlowDirect,
			Params: map[string]string{"key": "27", "payment_type": "INVOICE_START", "invoice_type": "PREPAYMENT"},
		},
		{
			ID: CreditCard, DisplayName: "Credit Card", Flow: FlowRedirect,
			Params: map[string]string{"key": "6", "payment_type": "CREDITCARD", "cc_3d": "1"},
		},
		{
			ID: SEPA, DisplayName: "Direct Debit SEPA", Flow: FlowDirect,
			Params: map[string]string{"key": "37", "payment_type": "DIRECT_DEBIT_SEPA"},
		},
		{
			ID: Sofort, DisplayName: "Instant Bank Transfer", Flow: FlowRedirect,
			Params: map[string]string{"key": "33", "payment_type": "ONLINE_TRANSFER"},
		},
		{
			ID: PayPal, DisplayName: "PayPal", Flow: FlowRedirect,
			Params: map[string]string{"key": "34", "payment_type": "PAYPAL"},
		},
		{
			ID: IDEAL, DisplayName: "iDEAL", Flow: FlowRedirect,
			Params: map[string]string{"key": "49", "payment_type": "IDEAL"},
		},
		{
			ID: EPS, DisplayName: "eps", Flow: FlowRedirect,
			Params: map[string]string{"key": "50", "payment_type": "EPS"},
		},
		{
			ID: Giropay, DisplayName: "giropay", Flow: FlowRedirect,
			Params: map[string]string{"key": "69", "payment_type": "GIROPAY"},
		},
		{
			ID: Przelewy, DisplayName: "Przelewy24", Flow: FlowRedirect,
			Params: map[string]string{"key": "78", "payment_type": "PRZELEWY24"},
		},
		{
			ID: CashPayment, DisplayName: "Barzahlen", Flow: FlowDirect,
			Params: map[string]string{"key": "59", "payment_type": "CASHPAYMENT"},
		},
	}
}

// NewDefaultRegistry builds a registry holding every default method, each
// reacting to the basket create, change and item-add events.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, m := range Defaults() {
		m.Triggers = basketTriggers
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}
