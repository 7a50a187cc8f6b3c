package coordinator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/artvista/cartsync/internal/store"
	"github.com/artvista/cartsync/pkg/cart"
)

func newGuestCoordinator(t *testing.T) (*Coordinator, *stubRemote, store.GuestStore) {
	guest := store.NewFileStore(filepath.Join(t.TempDir(), "guest-cart.json"))
	remote := &stubRemote{}
	co := New(guest, remote)
	co.Load(context.Background())
	return co, remote, guest
}

func TestGuestAddCoalescesIdenticalLines(t *testing.T) {
	c := context.Background()
	co, _, _ := newGuestCoordinator(t)
	options := cart.Options{"width": "30", "height": "40"}

	result := co.AddToCart(c, harborAtDusk(), 2, options)
	assert.True(t, result.Success)
	result = co.AddToCart(c, harborAtDusk(), 3, options)
	assert.True(t, result.Success)

	items := co.Items()
	assert.Len(t, items, 1, "identical adds coalesce into one line")
	assert.Equal(t, int32(5), items[0].Quantity)
}

func TestGuestAddDistinctOptionsCreateDistinctLines(t *testing.T) {
	c := context.Background()
	co, _, _ := newGuestCoordinator(t)

	co.AddToCart(c, harborAtDusk(), 1, cart.Options{"width": "30", "height": "40"})
	co.AddToCart(c, harborAtDusk(), 1, cart.Options{"width": "60", "height": "80"})

	assert.Len(t, co.Items(), 2)
}

func TestGuestAddSnapshotsDiscountPrice(t *testing.T) {
	c := context.Background()
	co, _, _ := newGuestCoordinator(t)

	co.AddToCart(c, linocutPrint(), 1, nil)
	items := co.Items()
	assert.Len(t, items, 1)
	assert.True(t, decimal.NewFromInt(180).Equal(items[0].Price))
}

func TestMergeOncePerLogin(t *testing.T) {
	c := context.Background()
	co, remote, guest := newGuestCoordinator(t)

	co.AddToCart(c, harborAtDusk(), 2, nil)
	co.AddToCart(c, linocutPrint(), 1, nil)

	co.SetSession(c, true)
	assert.Equal(t, 1, remote.mergeCalls)
	assert.Empty(t, guest.Read(c), "guest store cleared after successful merge")

	items := co.Items()
	assert.Len(t, items, 2, "in-memory list adopts merged result")

	// staying authenticated must not re-trigger the merge
	co.SetSession(c, true)
	assert.Equal(t, 1, remote.mergeCalls)
}

func TestMergeSkippedWhenGuestCartEmpty(t *testing.T) {
	c := context.Background()
	co, remote, _ := newGuestCoordinator(t)
	remote.items = []cart.Item{
		{ID: "srv-1", ProductID: "artwork-001", Quantity: 1, Available: true},
	}

	co.SetSession(c, true)
	assert.Equal(t, 0, remote.mergeCalls)
	assert.Equal(t, 1, remote.fetchCalls, "empty guest cart adopts the backend cart instead")
	assert.Len(t, co.Items(), 1)
}

func TestRapidSessionFlipDropsSecondMerge(t *testing.T) {
	c := context.Background()
	co, remote, _ := newGuestCoordinator(t)
	co.AddToCart(c, harborAtDusk(), 1, nil)

	remote.mergeEntered = make(chan struct{})
	remote.mergeRelease = make(chan struct{})

	done := make(chan struct{})
	go func() {
		co.SetSession(c, true)
		close(done)
	}()
	<-remote.mergeEntered

	// flip while the first merge is still in flight
	co.SetSession(c, false)
	co.SetSession(c, true)

	close(remote.mergeRelease)
	<-done
	assert.Equal(t, 1, remote.mergeCalls, "same guest list must not be double-submitted")
}

func TestMergeFailureLeavesGuestStoreUntouched(t *testing.T) {
	c := context.Background()
	co, remote, guest := newGuestCoordinator(t)
	co.AddToCart(c, harborAtDusk(), 2, nil)
	before := co.Items()

	remote.failMerge = true
	co.SetSession(c, true)

	assert.Equal(t, 1, remote.mergeCalls)
	assert.Len(t, guest.Read(c), 1, "guest store kept for a later retry")
	assert.Equal(t, before, co.Items(), "in-memory list unchanged after failed merge")
}

func TestUpdateQuantityZeroRoutesToRemoval(t *testing.T) {
	c := context.Background()
	co, _, _ := newGuestCoordinator(t)
	co.AddToCart(c, harborAtDusk(), 2, nil)
	itemID := co.Items()[0].ID

	result := co.UpdateQuantity(c, itemID, 0)
	assert.True(t, result.Success)
	assert.Empty(t, co.Items(), "zero quantity removes the line")
}

func TestUpdateQuantityZeroRoutesToRemovalAuthenticated(t *testing.T) {
	c := context.Background()
	guest := store.NewFileStore(filepath.Join(t.TempDir(), "guest-cart.json"))
	remote := &stubRemote{items: []cart.Item{
		{ID: "srv-1", ProductID: "artwork-001", Quantity: 2, Available: true},
	}}
	co := New(guest, remote)
	co.SetSession(c, true)
	co.Load(c)

	result := co.UpdateQuantity(c, "srv-1", -1)
	assert.True(t, result.Success)
	assert.Equal(t, 0, remote.updateCalls, "update endpoint never sees a non-positive quantity")
	assert.Equal(t, 1, remote.removeCalls)
	assert.Empty(t, co.Items())
}

func TestRemoteFailureDoesNotCorruptState(t *testing.T) {
	c := context.Background()
	guest := store.NewFileStore(filepath.Join(t.TempDir(), "guest-cart.json"))
	remote := &stubRemote{items: []cart.Item{
		{ID: "srv-1", ProductID: "artwork-001", Quantity: 1, Available: true},
		{ID: "srv-2", ProductID: "print-014", Quantity: 2, Available: true},
	}}
	co := New(guest, remote)
	co.SetSession(c, true)
	co.Load(c)
	before := co.Items()
	assert.Len(t, before, 2)

	remote.failAdd = true
	result := co.AddToCart(c, harborAtDusk(), 1, nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, before, co.Items(), "failed add leaves the last-known-good list")

	remote.failUpdate = true
	result = co.UpdateQuantity(c, "srv-1", 5)
	assert.False(t, result.Success)
	assert.Equal(t, before, co.Items())

	remote.failClear = true
	result = co.ClearCart(c)
	assert.False(t, result.Success)
	assert.Equal(t, before, co.Items())
}

func TestGuestRoundTripAcrossCoordinators(t *testing.T) {
	c := context.Background()
	path := filepath.Join(t.TempDir(), "guest-cart.json")
	guest := store.NewFileStore(path)

	first := New(guest, &stubRemote{})
	first.Load(c)
	first.AddToCart(c, harborAtDusk(), 2, cart.Options{"framed": "yes"})
	first.AddToCart(c, linocutPrint(), 1, nil)
	before := first.Items()

	second := New(store.NewFileStore(path), &stubRemote{})
	second.Load(c)
	after := second.Items()

	assert.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[0].Quantity, after[0].Quantity)
	assert.Equal(t, before[0].Options, after[0].Options)
	assert.True(t, before[1].Price.Equal(after[1].Price))
}

func TestLoadFallsBackToGuestStoreOnFetchFailure(t *testing.T) {
	c := context.Background()
	path := filepath.Join(t.TempDir(), "guest-cart.json")
	guest := store.NewFileStore(path)
	assert.NoError(t, guest.Write(c, []cart.Item{
		{ID: "line-1", ProductID: "artwork-001", Quantity: 1, Available: true},
	}))

	remote := &stubRemote{failFetch: true}
	co := New(guest, remote)
	co.SetSession(c, true)
	co.Load(c)

	assert.Equal(t, StateReady, co.State(), "load always ends ready")
	assert.Len(t, co.Items(), 1, "fetch failure degrades to the guest list")
}

func TestSummaryTracksList(t *testing.T) {
	c := context.Background()
	co, _, _ := newGuestCoordinator(t)

	assert.Equal(t, int32(0), co.Summary().ItemsCount)

	co.AddToCart(c, harborAtDusk(), 2, nil)
	summary := co.Summary()
	assert.Equal(t, int32(2), summary.ItemsCount)
	assert.True(t, decimal.NewFromInt(900).Equal(summary.Subtotal))
	assert.True(t, summary.Total.Equal(summary.Subtotal))

	co.ClearCart(c)
	assert.Equal(t, int32(0), co.Summary().ItemsCount)
}

func TestStateTransitions(t *testing.T) {
	guest := store.NewFileStore(filepath.Join(t.TempDir(), "guest-cart.json"))
	co := New(guest, &stubRemote{})
	assert.Equal(t, StateUninitialized, co.State())

	co.Load(context.Background())
	assert.Equal(t, StateReady, co.State())
}
