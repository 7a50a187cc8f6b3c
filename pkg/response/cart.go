package response

import "github.com/artvista/cartsync/pkg/cart"

type Cart struct {
	Items []cart.Item `json:"items"`
}

type Error struct {
	Message string `json:"message,omitempty"`
}
