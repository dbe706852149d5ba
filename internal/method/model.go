package method

// Trigger names a basket event a payment method reacts to.
type Trigger string

const (
	TriggerAfterBasketCreate  Trigger = "AfterBasketCreate"
	TriggerAfterBasketChanged Trigger = "AfterBasketChanged"
	TriggerAfterBasketItemAdd Trigger = "AfterBasketItemAdd"
)

// Flow tells how the gateway is reached for a method.
type Flow string

const (
	// FlowDirect methods are submitted server-to-server to the payport API.
	FlowDirect Flow = "DIRECT"
	// FlowRedirect methods send the customer to the hosted payment page.
	FlowRedirect Flow = "REDIRECT"
)

const (
	Invoice     = "NOVALNET_INVOICE"
	Prepayment  = "NOVALNET_PREPAYMENT"
	CreditCard  = "NOVALNET_CC"
	SEPA        = "NOVALNET_SEPA"
	Sofort      = "NOVALNET_SOFORT"
	PayPal      = "NOVALNET_PAYPAL"
	IDEAL       = "NOVALNET_IDEAL"
	EPS         = "NOVALNET_EPS"
	Giropay     = "NOVALNET_GIROPAY"
	Przelewy    = "NOVALNET_PRZELEWY"
	CashPayment = "NOVALNET_CASHPAYMENT"
)

// PluginNamespace prefixes method keys handed over by the shop platform.
const PluginNamespace = "plenty_novalnet::"

type Method struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Flow        Flow              `json:"flow"`
	Triggers    []Trigger         `json:"triggers"`
	Params      map[string]string `json:"-"`
}

// HasTrigger reports whether the method recomputes on the given basket event.
func (m Method) HasTrigger(t Trigger) bool {
	for _, tr := range m.Triggers {
		if tr == t {
			return true
		}
	}
	return false
}

// basketTriggers is the trigger set every Novalnet method listens to.
var basketTriggers = []Trigger{
	TriggerAfterBasketChanged,
	TriggerAfterBasketItemAdd,
	TriggerAfterBasketCreate,
}
