// Package coordinator owns the in-memory cart and decides which store is
// authoritative: the guest store while anonymous, the cart backend once a
// session exists. It merges the guest cart into the backend exactly once
// per login.
package coordinator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artvista/cartsync/internal/errors"
	"github.com/artvista/cartsync/internal/log"
	inOtel "github.com/artvista/cartsync/internal/otel"
	"github.com/artvista/cartsync/internal/store"
	"github.com/artvista/cartsync/pkg/cart"
)

// State is the coordinator lifecycle. The three phases replace the
// loading/configReady/cartInitialized flag soup of older cart clients so
// illegal combinations cannot be represented.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Result is the uniform outcome of every mutating operation, so callers
// surface feedback without inspecting errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func failure(err error) Result {
	return Result{Success: false, Message: err.Error()}
}

// RemoteCart is the backend boundary, implemented by remote.Client.
type RemoteCart interface {
	FetchCart(c context.Context) ([]cart.Item, error)
	AddItem(c context.Context, productID string, productType cart.ProductType, quantity int32, options cart.Options) ([]cart.Item, error)
	UpdateQuantity(c context.Context, itemID string, quantity int32) ([]cart.Item, error)
	RemoveItem(c context.Context, itemID string) ([]cart.Item, error)
	ClearCart(c context.Context) error
	MergeCart(c context.Context, guestItems []cart.MergeLine) ([]cart.Item, error)
}

// Coordinator is constructed once at application start and passed to
// consumers explicitly. Only the coordinator mutates the item list.
type Coordinator struct {
	guest  store.GuestStore
	remote RemoteCart

	mu            sync.Mutex
	state         State
	authenticated bool
	merging       bool
	items         []cart.Item
}

func New(guest store.GuestStore, remote RemoteCart) *Coordinator {
	return &Coordinator{
		guest:  guest,
		remote: remote,
		state:  StateUninitialized,
		items:  []cart.Item{},
	}
}

// Load populates the item list from the authoritative store. Failures
// degrade to the guest store, then to an empty cart; the coordinator always
// ends up ready so the caller is never stuck on a spinner.
func (co *Coordinator) Load(c context.Context) {
	c, span := inOtel.Tracer.Start(c, "Coordinator Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Coordinator Load").
		Logger()

	co.mu.Lock()
	if co.state == StateLoading {
		co.mu.Unlock()
		return
	}
	co.state = StateLoading
	authenticated := co.authenticated
	co.mu.Unlock()

	var items []cart.Item
	if authenticated {
		logger = logger.With().Str(log.KeyProcess, "fetching cart from backend").Logger()
		logger.Info().Msg("fetching cart from backend")
		fetched, err := co.remote.FetchCart(c)
		if err != nil {
			errors.HandleError(err, span)
			logger.Warn().
				Err(err).
				Msgf("failed fetching cart, falling back to guest store with error=%s", err.Error())
			items = co.guest.Read(c)
		} else {
			items = fetched
		}
	} else {
		logger = logger.With().Str(log.KeyProcess, "reading guest cart").Logger()
		logger.Info().Msg("reading guest cart")
		items = co.guest.Read(c)
	}

	co.mu.Lock()
	co.items = items
	co.state = StateReady
	co.mu.Unlock()
	logger.Info().
		Int(log.KeyCartItemCount, len(items)).
		Str(log.KeyCartState, StateReady.String()).
		Msg("cart loaded")
}

// SetSession is the authentication observer. Flipping anonymous to
// authenticated triggers the one-shot guest merge; a second flip while a
// merge is in flight is dropped, never double-submitted. A failed merge
// leaves the guest store untouched so the next login retries.
func (co *Coordinator) SetSession(c context.Context, authenticated bool) {
	c, span := inOtel.Tracer.Start(c, "Coordinator SetSession")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Coordinator SetSession").
		Bool("authenticated", authenticated).
		Logger()

	co.mu.Lock()
	wasAuthenticated := co.authenticated
	co.authenticated = authenticated
	if !authenticated || wasAuthenticated {
		co.mu.Unlock()
		return
	}
	if co.merging {
		co.mu.Unlock()
		logger.Warn().Msg("dropping session flip, merge already in flight")
		errors.HandleError(errors.ErrMergeInFlight, span)
		return
	}
	co.merging = true
	co.mu.Unlock()
	defer func() {
		co.mu.Lock()
		co.merging = false
		co.mu.Unlock()
	}()

	guestItems := co.guest.Read(c)
	if len(guestItems) == 0 {
		logger.Info().Msg("guest cart is empty, adopting backend cart")
		items, err := co.remote.FetchCart(c)
		if err != nil {
			errors.HandleError(err, span)
			logger.Warn().Err(err).Msgf("failed fetching cart with error=%s", err.Error())
			return
		}
		co.replaceItems(items)
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "merging guest cart").
		Int(log.KeyCartItemCount, len(guestItems)).
		Logger()
	logger.Info().Msg("merging guest cart into backend")
	merged, err := co.remote.MergeCart(c, cart.MergePayload(guestItems))
	if err != nil {
		mergesTotal.WithLabelValues("failure").Inc()
		errors.HandleError(err, span)
		logger.Error().Err(err).Msgf("failed merging guest cart with error=%s", err.Error())
		return
	}
	mergesTotal.WithLabelValues("success").Inc()
	co.replaceItems(merged)
	if err := co.guest.Clear(c); err != nil {
		logger.Warn().Err(err).Msgf("failed clearing guest store with error=%s", err.Error())
	}
	logger.Info().Int(log.KeyCartItemCount, len(merged)).Msg("merged guest cart into backend")
}

// AddToCart snapshots the product into a cart line. Identical guest lines
// (same product, type and options) coalesce into one line instead of
// duplicating.
func (co *Coordinator) AddToCart(
	c context.Context,
	product cart.Product,
	quantity int32,
	options cart.Options,
) Result {
	c, span := inOtel.Tracer.Start(c, "Coordinator AddToCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Coordinator AddToCart").
		Str(log.KeyProductID, product.ID).
		Str(log.KeyProductType, string(product.Type)).
		Int32(log.KeyQuantity, quantity).
		Logger()

	item := cart.NewItem(product, quantity, options)

	if co.isAuthenticated() {
		items, err := co.remote.AddItem(c, product.ID, product.Type, item.Quantity, options)
		if err != nil {
			recordOperation("add", false)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msgf("failed adding item to cart with error=%s", err.Error())
			return failure(err)
		}
		co.replaceItems(items)
		recordOperation("add", true)
		return Result{Success: true, Message: "added to cart"}
	}

	co.mu.Lock()
	matched := false
	for i := range co.items {
		if co.items[i].SameLine(product.ID, product.Type, options) {
			co.items[i].Quantity += item.Quantity
			matched = true
			break
		}
	}
	if !matched {
		co.items = append(co.items, item)
	}
	co.mu.Unlock()

	co.persistGuest(c)
	recordOperation("add", true)
	logger.Info().Bool("coalesced", matched).Msg("added item to guest cart")
	return Result{Success: true, Message: "added to cart"}
}

// UpdateQuantity changes a line's quantity. A quantity of zero or less is a
// removal request, never an error.
func (co *Coordinator) UpdateQuantity(c context.Context, itemID string, quantity int32) Result {
	c, span := inOtel.Tracer.Start(c, "Coordinator UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Coordinator UpdateQuantity").
		Str(log.KeyCartItemID, itemID).
		Int32(log.KeyQuantity, quantity).
		Logger()

	if quantity <= 0 {
		logger.Info().Msg("non-positive quantity, routing to removal")
		return co.RemoveFromCart(c, itemID)
	}

	if co.isAuthenticated() {
		items, err := co.remote.UpdateQuantity(c, itemID, quantity)
		if err != nil {
			recordOperation("update", false)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msgf("failed updating cart with error=%s", err.Error())
			return failure(err)
		}
		co.replaceItems(items)
		recordOperation("update", true)
		return Result{Success: true, Message: "cart updated"}
	}

	co.mu.Lock()
	for i := range co.items {
		if co.items[i].ID == itemID {
			co.items[i].Quantity = quantity
			break
		}
	}
	co.mu.Unlock()

	co.persistGuest(c)
	recordOperation("update", true)
	logger.Info().Msg("updated guest cart item")
	return Result{Success: true, Message: "cart updated"}
}

func (co *Coordinator) RemoveFromCart(c context.Context, itemID string) Result {
	c, span := inOtel.Tracer.Start(c, "Coordinator RemoveFromCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Coordinator RemoveFromCart").
		Str(log.KeyCartItemID, itemID).
		Logger()

	if co.isAuthenticated() {
		items, err := co.remote.RemoveItem(c, itemID)
		if err != nil {
			recordOperation("remove", false)
			errors.HandleError(err, span)
			logger.Error().
				Err(err).
				Msgf("failed removing item from cart with error=%s", err.Error())
			return failure(err)
		}
		co.replaceItems(items)
		recordOperation("remove", true)
		return Result{Success: true, Message: "removed from cart"}
	}

	co.mu.Lock()
	filtered := co.items[:0]
	for _, item := range co.items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}
	co.items = filtered
	co.mu.Unlock()

	co.persistGuest(c)
	recordOperation("remove", true)
	logger.Info().Msg("removed item from guest cart")
	return Result{Success: true, Message: "removed from cart"}
}

func (co *Coordinator) ClearCart(c context.Context) Result {
	c, span := inOtel.Tracer.Start(c, "Coordinator ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Coordinator ClearCart").
		Logger()

	if co.isAuthenticated() {
		if err := co.remote.ClearCart(c); err != nil {
			recordOperation("clear", false)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msgf("failed clearing cart with error=%s", err.Error())
			return failure(err)
		}
		co.replaceItems([]cart.Item{})
		recordOperation("clear", true)
		return Result{Success: true, Message: "cart cleared"}
	}

	co.mu.Lock()
	co.items = []cart.Item{}
	co.mu.Unlock()

	if err := co.guest.Clear(c); err != nil {
		logger.Warn().Err(err).Msgf("failed clearing guest store with error=%s", err.Error())
	}
	recordOperation("clear", true)
	logger.Info().Msg("cleared guest cart")
	return Result{Success: true, Message: "cart cleared"}
}

// Items returns a snapshot copy of the current list.
func (co *Coordinator) Items() []cart.Item {
	co.mu.Lock()
	defer co.mu.Unlock()
	items := make([]cart.Item, len(co.items))
	copy(items, co.items)
	return items
}

// Summary is derived on every call so it can never drift from the list.
func (co *Coordinator) Summary() cart.Summary {
	return cart.Summarize(co.Items())
}

func (co *Coordinator) State() State {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.state
}

func (co *Coordinator) isAuthenticated() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.authenticated
}

// replaceItems adopts a server response wholesale. Last response wins; the
// backend is authoritative for authenticated carts.
func (co *Coordinator) replaceItems(items []cart.Item) {
	if items == nil {
		items = []cart.Item{}
	}
	co.mu.Lock()
	co.items = items
	co.mu.Unlock()
}

// persistGuest mirrors the in-memory list to the guest store, but only once
// the initial load finished so a not-yet-loaded cart is never overwritten
// with an empty list.
func (co *Coordinator) persistGuest(c context.Context) {
	co.mu.Lock()
	if co.authenticated || co.state != StateReady {
		co.mu.Unlock()
		return
	}
	items := make([]cart.Item, len(co.items))
	copy(items, co.items)
	co.mu.Unlock()

	if err := co.guest.Write(c, items); err != nil {
		zerolog.Ctx(c).
			Warn().
			Err(err).
			Str(log.KeyTag, "Coordinator persistGuest").
			Msgf("failed persisting guest cart with error=%s", err.Error())
	}
}
