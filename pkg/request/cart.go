package request

import "github.com/artvista/cartsync/pkg/cart"

type AddItem struct {
	ProductID   string           `validate:"required"                       json:"product_id"`
	ProductType cart.ProductType `validate:"required,oneof=product artwork" json:"product_type"`
	Quantity    int32            `validate:"required,gte=1"                 json:"quantity"`
	Options     cart.Options     `json:"options,omitempty"`
}

type UpdateQuantity struct {
	ItemID   string `validate:"required"       json:"item_id"`
	Quantity int32  `validate:"required,gte=1" json:"quantity"`
}

type RemoveItem struct {
	ItemID string `validate:"required" json:"item_id"`
}

type MergeCart struct {
	GuestCart []cart.MergeLine `validate:"required,min=1,dive" json:"guest_cart"`
}
