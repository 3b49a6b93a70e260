package domain

// Product is a catalog entry. The checkout flow only reads products; catalog
// management lives elsewhere.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Active    bool   `json:"active"`
}
