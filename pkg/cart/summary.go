package cart

import "github.com/shopspring/decimal"

// Summary is derived from an item list and never persisted. Unavailable
// lines are excluded from the count and money aggregates and reported
// separately.
type Summary struct {
	ItemsCount            int32           `json:"items_count"`
	UnavailableItemsCount int32           `json:"unavailable_items_count"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Total                 decimal.Decimal `json:"total"`
}

// Summarize recomputes the summary from scratch. Total equals Subtotal;
// shipping is collected on delivery and never priced here.
func Summarize(items []Item) Summary {
	summary := Summary{
		Subtotal: decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, item := range items {
		if !item.Available {
			summary.UnavailableItemsCount += item.Quantity
			continue
		}
		summary.ItemsCount += item.Quantity
		summary.Subtotal = summary.Subtotal.Add(
			item.Price.Mul(decimal.NewFromInt32(item.Quantity)),
		)
	}
	summary.Total = summary.Subtotal
	return summary
}
