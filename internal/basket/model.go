package basket

import "fmt"

type LineItem struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"` // minor units
}

// Snapshot is a read-only view of a basket at checkout time.
type Snapshot struct {
	ID       string     `json:"id"`
	Items    []LineItem `json:"items"`
	Currency string     `json:"currency"`
	Total    int64      `json:"total"` // minor units
}

// FormatMinor renders a minor-unit amount with two decimals, e.g. 4999 -> "49.99".
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
