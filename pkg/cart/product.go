package cart

import "github.com/shopspring/decimal"

// Product is the catalog snapshot handed to AddToCart by the caller.
type Product struct {
	ID            string           `json:"id"`
	Type          ProductType      `json:"type"`
	Title         string           `json:"title"`
	Image         string           `json:"image"`
	Artist        string           `json:"artist"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
}

// UnitPrice returns the discount price when present and lower than the list
// price, else the list price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.LessThan(p.Price) {
		return *p.DiscountPrice
	}
	return p.Price
}
