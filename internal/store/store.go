// Package store persists the guest cart. The coordinator is the only
// caller; nothing else may touch the backing key.
package store

import (
	"context"

	"github.com/artvista/cartsync/pkg/cart"
)

// GuestStore is the local persistence boundary for the guest cart.
//
// Read never fails: absent or corrupt data degrades to an empty list and
// the corrupt entry is purged. Write and Clear report their error but
// callers keep the in-memory list authoritative for the session either way.
type GuestStore interface {
	Read(c context.Context) []cart.Item
	Write(c context.Context, items []cart.Item) error
	Clear(c context.Context) error
}
