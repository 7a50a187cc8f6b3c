// Package remote is the REST adapter for the authenticated cart. The
// server's item list is always adopted as the new source of truth; the
// coordinator never mutates state before a successful response.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/artvista/cartsync/internal/config"
	inErrors "github.com/artvista/cartsync/internal/errors"
	"github.com/artvista/cartsync/internal/log"
	inOtel "github.com/artvista/cartsync/internal/otel"
	"github.com/artvista/cartsync/pkg/cart"
	"github.com/artvista/cartsync/pkg/request"
	"github.com/artvista/cartsync/pkg/response"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate

	mu    sync.RWMutex
	token string
}

func NewClient(cfg config.Remote) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		token:    cfg.Token,
	}
}

// SetToken swaps the session credential carried on every request.
func (cl *Client) SetToken(token string) {
	cl.mu.Lock()
	cl.token = token
	cl.mu.Unlock()
}

func (cl *Client) sessionToken() string {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.token
}

// do issues one request and decodes the server's item list. Non-2xx
// responses surface the server-provided message when present, else
// fallbackMsg.
func (cl *Client) do(
	c context.Context,
	method string,
	path string,
	body any,
	fallbackMsg string,
) ([]cart.Item, error) {
	c, span := inOtel.Tracer.Start(c, "Client "+method+" "+path)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client do").
		Str(log.KeyRequestMethod, method).
		Str(log.KeyEndpoint, path).
		Logger()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, errors.New(fallbackMsg)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(c, method, cl.baseURL+"/"+path, reader)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, errors.New(fallbackMsg)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := cl.sessionToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, errors.New(fallbackMsg)
	}
	defer resp.Body.Close()

	logger = logger.With().Int(log.KeyStatusCode, resp.StatusCode).Logger()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody := response.Error{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr != nil {
			logger.Warn().
				Err(decodeErr).
				Msgf("failed decoding error body with error=%s", decodeErr.Error())
		}
		msg := fallbackMsg
		if errBody.Message != "" {
			msg = errBody.Message
		}
		err = fmt.Errorf("cart backend returned statusCode=%d message=%s", resp.StatusCode, msg)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, errors.New(msg)
	}

	cartBody := response.Cart{}
	if err := json.NewDecoder(resp.Body).Decode(&cartBody); err != nil {
		err = fmt.Errorf("failed decoding response body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, errors.New(fallbackMsg)
	}
	return cartBody.Items, nil
}

func (cl *Client) FetchCart(c context.Context) ([]cart.Item, error) {
	return cl.do(c, http.MethodGet, "cart", nil, "failed to fetch cart")
}

func (cl *Client) AddItem(
	c context.Context,
	productID string,
	productType cart.ProductType,
	quantity int32,
	options cart.Options,
) ([]cart.Item, error) {
	req := request.AddItem{
		ProductID:   productID,
		ProductType: productType,
		Quantity:    quantity,
		Options:     options,
	}
	if err := cl.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid add to cart request with error=%w", err)
	}
	return cl.do(c, http.MethodPost, "cart/add", req, "failed to add item to cart")
}

func (cl *Client) UpdateQuantity(
	c context.Context,
	itemID string,
	quantity int32,
) ([]cart.Item, error) {
	req := request.UpdateQuantity{ItemID: itemID, Quantity: quantity}
	if err := cl.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid update cart request with error=%w", err)
	}
	return cl.do(c, http.MethodPut, "cart/update", req, "failed to update cart")
}

func (cl *Client) RemoveItem(c context.Context, itemID string) ([]cart.Item, error) {
	req := request.RemoveItem{ItemID: itemID}
	if err := cl.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid remove from cart request with error=%w", err)
	}
	return cl.do(c, http.MethodDelete, "cart/remove", req, "failed to remove item from cart")
}

func (cl *Client) ClearCart(c context.Context) error {
	_, err := cl.do(c, http.MethodDelete, "cart/clear", nil, "failed to clear cart")
	return err
}

func (cl *Client) MergeCart(c context.Context, guestItems []cart.MergeLine) ([]cart.Item, error) {
	req := request.MergeCart{GuestCart: guestItems}
	if err := cl.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid merge cart request with error=%w", err)
	}
	return cl.do(c, http.MethodPost, "cart/merge", req, "failed to merge cart")
}
