package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		input    func() []Item
		expected Summary
	}{
		{
			name:  "given empty cart should return zero summary",
			input: func() []Item { return nil },
			expected: Summary{
				ItemsCount:            0,
				UnavailableItemsCount: 0,
				Subtotal:              decimal.Zero,
				Total:                 decimal.Zero,
			},
		},
		{
			name: "given available and unavailable items should aggregate available only",
			input: func() []Item {
				return []Item{
					{
						ID:        "line-1",
						Quantity:  2,
						Price:     decimal.NewFromInt(10),
						Available: true,
					},
					{
						ID:        "line-2",
						Quantity:  3,
						Price:     decimal.NewFromInt(5),
						Available: false,
					},
				}
			},
			expected: Summary{
				ItemsCount:            2,
				UnavailableItemsCount: 3,
				Subtotal:              decimal.NewFromInt(20),
				Total:                 decimal.NewFromInt(20),
			},
		},
		{
			name: "given multiple available lines should sum quantity times price",
			input: func() []Item {
				return []Item{
					{
						ID:        "line-1",
						Quantity:  1,
						Price:     decimal.RequireFromString("19.99"),
						Available: true,
					},
					{
						ID:        "line-2",
						Quantity:  4,
						Price:     decimal.RequireFromString("2.50"),
						Available: true,
					},
				}
			},
			expected: Summary{
				ItemsCount:            5,
				UnavailableItemsCount: 0,
				Subtotal:              decimal.RequireFromString("29.99"),
				Total:                 decimal.RequireFromString("29.99"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := Summarize(tt.input())
			assert.Equal(t, tt.expected.ItemsCount, actual.ItemsCount)
			assert.Equal(t, tt.expected.UnavailableItemsCount, actual.UnavailableItemsCount)
			assert.True(t, tt.expected.Subtotal.Equal(actual.Subtotal))
			assert.True(t, tt.expected.Total.Equal(actual.Total))
		})
	}
}
