package cart

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeProduct ProductType = "product"
	ProductTypeArtwork ProductType = "artwork"
)

// Options are opaque display attributes (custom dimensions and the like)
// that also take part in line identity.
type Options map[string]string

// Equal reports whether two option sets hold the same key/value pairs.
// Comparison is order independent.
func (o Options) Equal(other Options) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Item is one cart line. Price, title, image and artist are snapshots taken
// at add time, not re-fetched from the catalog.
type Item struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductType  ProductType     `json:"product_type"`
	Quantity     int32           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductTitle string          `json:"product_title"`
	ProductImage string          `json:"product_image"`
	Artist       string          `json:"artist"`
	Options      Options         `json:"options,omitempty"`
	Available    bool            `json:"available"`
	AddedAt      time.Time       `json:"added_at"`
}

// UnmarshalJSON defaults Available to true when the key is absent, so older
// snapshots without the field stay purchasable.
func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	aux := struct {
		*alias
		Available *bool `json:"available"`
	}{alias: (*alias)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Available == nil {
		i.Available = true
	} else {
		i.Available = *aux.Available
	}
	return nil
}

// SameLine reports whether other identifies the same cart line, i.e. the
// (product_id, product_type, options) triple matches.
func (i Item) SameLine(productID string, productType ProductType, options Options) bool {
	return i.ProductID == productID &&
		i.ProductType == productType &&
		i.Options.Equal(options)
}

// NewItem builds a guest-side cart line snapshot for the given product.
// Quantity is clamped to at least 1.
func NewItem(product Product, quantity int32, options Options) Item {
	if quantity < 1 {
		quantity = 1
	}
	return Item{
		ID:           uuid.NewString(),
		ProductID:    product.ID,
		ProductType:  product.Type,
		Quantity:     quantity,
		Price:        product.UnitPrice(),
		ProductTitle: product.Title,
		ProductImage: product.Image,
		Artist:       product.Artist,
		Options:      options,
		Available:    true,
		AddedAt:      time.Now(),
	}
}

// MergeLine is the reduced form of a guest item sent to the merge endpoint.
// Price, title and image are dropped since the server recomputes them.
type MergeLine struct {
	ProductID   string      `json:"product_id"`
	ProductType ProductType `json:"product_type"`
	Quantity    int32       `json:"quantity"`
	Options     Options     `json:"options,omitempty"`
}

func MergePayload(items []Item) []MergeLine {
	lines := make([]MergeLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, MergeLine{
			ProductID:   item.ProductID,
			ProductType: item.ProductType,
			Quantity:    item.Quantity,
			Options:     item.Options,
		})
	}
	return lines
}
