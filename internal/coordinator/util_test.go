package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/artvista/cartsync/pkg/cart"
)

// stubRemote scripts the backend boundary. It applies the server-side
// identity rule the real backend uses (coalesce on the same line triple)
// and can be told to fail per operation.
type stubRemote struct {
	mu    sync.Mutex
	items []cart.Item

	failFetch  bool
	failAdd    bool
	failUpdate bool
	failRemove bool
	failClear  bool
	failMerge  bool

	fetchCalls  int
	addCalls    int
	updateCalls int
	removeCalls int
	clearCalls  int
	mergeCalls  int

	// mergeEntered/mergeRelease let a test hold a merge in flight.
	mergeEntered chan struct{}
	mergeRelease chan struct{}
}

func (s *stubRemote) FetchCart(c context.Context) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.failFetch {
		return nil, errors.New("failed to fetch cart")
	}
	return s.snapshotLocked(), nil
}

func (s *stubRemote) AddItem(
	c context.Context,
	productID string,
	productType cart.ProductType,
	quantity int32,
	options cart.Options,
) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.failAdd {
		return nil, errors.New("failed to add item to cart")
	}
	s.upsertLocked(productID, productType, quantity, options)
	return s.snapshotLocked(), nil
}

func (s *stubRemote) UpdateQuantity(
	c context.Context,
	itemID string,
	quantity int32,
) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.failUpdate {
		return nil, errors.New("failed to update cart")
	}
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
		}
	}
	return s.snapshotLocked(), nil
}

func (s *stubRemote) RemoveItem(c context.Context, itemID string) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCalls++
	if s.failRemove {
		return nil, errors.New("failed to remove item from cart")
	}
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
	return s.snapshotLocked(), nil
}

func (s *stubRemote) ClearCart(c context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	if s.failClear {
		return errors.New("failed to clear cart")
	}
	s.items = []cart.Item{}
	return nil
}

func (s *stubRemote) MergeCart(
	c context.Context,
	guestItems []cart.MergeLine,
) ([]cart.Item, error) {
	s.mu.Lock()
	s.mergeCalls++
	entered := s.mergeEntered
	release := s.mergeRelease
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMerge {
		return nil, errors.New("failed to merge cart")
	}
	for _, line := range guestItems {
		s.upsertLocked(line.ProductID, line.ProductType, line.Quantity, line.Options)
	}
	return s.snapshotLocked(), nil
}

func (s *stubRemote) upsertLocked(
	productID string,
	productType cart.ProductType,
	quantity int32,
	options cart.Options,
) {
	for i := range s.items {
		if s.items[i].SameLine(productID, productType, options) {
			s.items[i].Quantity += quantity
			return
		}
	}
	s.items = append(s.items, cart.Item{
		ID:          fmt.Sprintf("srv-%d", len(s.items)+1),
		ProductID:   productID,
		ProductType: productType,
		Quantity:    quantity,
		Price:       decimal.NewFromInt(100),
		Options:     options,
		Available:   true,
	})
}

func (s *stubRemote) snapshotLocked() []cart.Item {
	items := make([]cart.Item, len(s.items))
	copy(items, s.items)
	return items
}

func harborAtDusk() cart.Product {
	return cart.Product{
		ID:     "artwork-001",
		Type:   cart.ProductTypeArtwork,
		Title:  "Harbor at Dusk",
		Artist: "M. Okafor",
		Price:  decimal.NewFromInt(450),
	}
}

func linocutPrint() cart.Product {
	discounted := decimal.NewFromInt(180)
	return cart.Product{
		ID:            "print-014",
		Type:          cart.ProductTypeProduct,
		Title:         "Linocut Print No. 14",
		Artist:        "E. Sandoval",
		Price:         decimal.NewFromInt(220),
		DiscountPrice: &discounted,
	}
}
