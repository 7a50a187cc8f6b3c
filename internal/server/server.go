// Package server is an in-memory cart backend implementing the REST
// surface the remote adapter consumes. It backs the client tests and the
// demo commands; it is a stand-in, not a product backend.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	inErrors "github.com/artvista/cartsync/internal/errors"
	inHttp "github.com/artvista/cartsync/internal/http"
	"github.com/artvista/cartsync/internal/log"
	"github.com/artvista/cartsync/internal/middleware"
	"github.com/artvista/cartsync/pkg/cart"
	"github.com/artvista/cartsync/pkg/request"
)

type Server struct {
	validate *validator.Validate

	mu      sync.Mutex
	items   []cart.Item
	catalog map[string]cart.Product
}

func New(products ...cart.Product) *Server {
	catalog := make(map[string]cart.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return &Server{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		items:    []cart.Item{},
		catalog:  catalog,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(otelmux.Middleware("cart-backend"), middleware.Logging, middleware.RecoverPanic)
	router.HandleFunc("/cart", s.getCart).Methods(http.MethodGet)
	router.HandleFunc("/cart/add", s.addItem).Methods(http.MethodPost)
	router.HandleFunc("/cart/update", s.updateQuantity).Methods(http.MethodPut)
	router.HandleFunc("/cart/remove", s.removeItem).Methods(http.MethodDelete)
	router.HandleFunc("/cart/clear", s.clearCart).Methods(http.MethodDelete)
	router.HandleFunc("/cart/merge", s.mergeCart).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

// MarkUnavailable flags a line whose product went off sale. Used by tests
// and the demo to exercise availability-aware aggregation.
func (s *Server) MarkUnavailable(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Available = false
		}
	}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	s.mu.Lock()
	items := s.snapshotLocked()
	s.mu.Unlock()
	inHttp.WriteJsonResponse(c, w, nil, map[string]interface{}{
		"statusCode": http.StatusOK,
		"items":      items,
	})
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Server addItem").Logger()

	req := request.AddItem{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.StructCtx(c, req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.catalog[req.ProductID]
	if !ok {
		logger.Warn().Str(log.KeyProductID, req.ProductID).Msg("product not found")
		writeError(w, r, http.StatusNotFound, inErrors.ErrProductNotFound.Error())
		return
	}

	matched := false
	for i := range s.items {
		if s.items[i].SameLine(req.ProductID, req.ProductType, req.Options) {
			s.items[i].Quantity += req.Quantity
			matched = true
			break
		}
	}
	if !matched {
		s.items = append(s.items, cart.Item{
			ID:           uuid.NewString(),
			ProductID:    product.ID,
			ProductType:  req.ProductType,
			Quantity:     req.Quantity,
			Price:        product.UnitPrice(),
			ProductTitle: product.Title,
			ProductImage: product.Image,
			Artist:       product.Artist,
			Options:      req.Options,
			Available:    true,
			AddedAt:      time.Now(),
		})
	}
	inHttp.WriteJsonResponse(c, w, nil, map[string]interface{}{
		"statusCode": http.StatusOK,
		"items":      s.snapshotLocked(),
	})
}

func (s *Server) updateQuantity(w http.ResponseWriter, r *http.Request) {
	c := r.Context()

	req := request.UpdateQuantity{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.StructCtx(c, req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.items {
		if s.items[i].ID == req.ItemID {
			s.items[i].Quantity = req.Quantity
			found = true
			break
		}
	}
	if !found {
		writeError(w, r, http.StatusNotFound, inErrors.ErrCartItemNotFound.Error())
		return
	}
	inHttp.WriteJsonResponse(c, w, nil, map[string]interface{}{
		"statusCode": http.StatusOK,
		"items":      s.snapshotLocked(),
	})
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	c := r.Context()

	req := request.RemoveItem{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.StructCtx(c, req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != req.ItemID {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
	inHttp.WriteJsonResponse(c, w, nil, map[string]interface{}{
		"statusCode": http.StatusOK,
		"items":      s.snapshotLocked(),
	})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	s.mu.Lock()
	s.items = []cart.Item{}
	s.mu.Unlock()
	inHttp.WriteJsonResponse(c, w, nil, map[string]interface{}{
		"statusCode": http.StatusOK,
		"success":    true,
	})
}

func (s *Server) mergeCart(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Server mergeCart").Logger()

	req := request.MergeCart{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.StructCtx(c, req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range req.GuestCart {
		product, ok := s.catalog[line.ProductID]
		if !ok {
			logger.Warn().
				Str(log.KeyProductID, line.ProductID).
				Msg("dropping guest line for unknown product")
			continue
		}
		matched := false
		for i := range s.items {
			if s.items[i].SameLine(line.ProductID, line.ProductType, line.Options) {
				s.items[i].Quantity += line.Quantity
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		s.items = append(s.items, cart.Item{
			ID:           uuid.NewString(),
			ProductID:    product.ID,
			ProductType:  line.ProductType,
			Quantity:     line.Quantity,
			Price:        product.UnitPrice(),
			ProductTitle: product.Title,
			ProductImage: product.Image,
			Artist:       product.Artist,
			Options:      line.Options,
			Available:    true,
			AddedAt:      time.Now(),
		})
	}
	inHttp.WriteJsonResponse(c, w, nil, map[string]interface{}{
		"statusCode": http.StatusOK,
		"items":      s.snapshotLocked(),
	})
}

func (s *Server) snapshotLocked() []cart.Item {
	items := make([]cart.Item, len(s.items))
	copy(items, s.items)
	return items
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	inHttp.WriteJsonResponse(r.Context(), w, nil, map[string]interface{}{
		"statusCode": statusCode,
		"status":     "failed",
		"message":    message,
	})
}
