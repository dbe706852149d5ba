package payment

import (
	"fmt"
	"strconv"
	"strings"

	"novalnet-checkout/internal/basket"
	"novalnet-checkout/internal/method"
)

// ReturnPath receives the customer back from the hosted payment page.
const ReturnPath = "/payment/novalnet/return"

// MethodLookup resolves payment method descriptors.
type MethodLookup interface {
	Lookup(id string) (method.Method, error)
}

type BuilderConfig struct {
	VendorID    string
	AuthCode    string
	ProductID   string
	TariffID    string
	TestMode    bool
	AccessKey   string
	PaygateURL  string
	PayportURL  string
	ShopBaseURL string
}

// Builder turns a basket snapshot into a gateway request. It holds no
// mutable state and may be shared between sessions.
type Builder struct {
	methods MethodLookup
	cfg     BuilderConfig
}

func NewBuilder(methods MethodLookup, cfg BuilderConfig) *Builder {
	cfg.ShopBaseURL = strings.TrimRight(cfg.ShopBaseURL, "/")
	return &Builder{methods: methods, cfg: cfg}
}

// BuildRequest is a pure function of its inputs: the same snapshot and
// method always yield the same fields and URL.
func (b *Builder) BuildRequest(snap *basket.Snapshot, methodID string) (*Request, error) {
	m, err := b.methods.Lookup(methodID)
	if err != nil {
		return nil, err
	}

	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"vendor":    b.cfg.VendorID,
		"auth_code": b.cfg.AuthCode,
		"product":   b.cfg.ProductID,
		"tariff":    b.cfg.TariffID,
		"test_mode": boolFlag(b.cfg.TestMode),
	}

	for k, v := range m.Params {
		fields[k] = v
	}

	// basket-derived values always win over method params
	fields[FieldAmount] = strconv.FormatInt(snap.Total, 10)
	fields[FieldCurrency] = strings.ToUpper(snap.Currency)
	fields[FieldBasketID] = "basket_id"
	fields[FieldBasketIDValue] = snap.ID

	returnURL := b.cfg.ShopBaseURL + ReturnPath
	fields["return_url"] = returnURL
	fields["return_method"] = "POST"
	fields["error_return_url"] = returnURL
	fields["error_return_method"] = "POST"

	// the basket id is stable across rebuilds, which keeps the request deterministic
	fields[FieldUniqueID] = snap.ID
	if b.cfg.AccessKey != "" {
		fields[FieldHash] = Checksum(fields, b.cfg.AccessKey)
	}

	return &Request{
		MethodID: m.ID,
		Fields:   fields,
		Amount:   snap.Total,
		Currency: strings.ToUpper(snap.Currency),
		URL:      b.submissionURL(m.Flow),
	}, nil
}

func (b *Builder) submissionURL(flow method.Flow) string {
	if flow == method.FlowRedirect {
		return b.cfg.PaygateURL
	}
	return b.cfg.PayportURL
}

func validateSnapshot(snap *basket.Snapshot) error {
	switch {
	case snap == nil:
		return fmt.Errorf("%w: no basket", ErrInvalidBasket)
	case len(snap.Items) == 0:
		return fmt.Errorf("%w: basket %s has no items", ErrInvalidBasket, snap.ID)
	case snap.Total <= 0:
		return fmt.Errorf("%w: basket %s total must be positive", ErrInvalidBasket, snap.ID)
	case strings.TrimSpace(snap.Currency) == "":
		return fmt.Errorf("%w: basket %s has no currency", ErrInvalidBasket, snap.ID)
	}
	return nil
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
