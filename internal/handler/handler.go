// Package handler exposes checkout over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/order"
)

// maxBodyBytes bounds checkout request bodies.
const maxBodyBytes = 1 << 20

// Checkout places orders for carts.
type Checkout interface {
	ProcessOrder(ctx context.Context, c *cart.Cart, instrument string) (*order.Order, error)
}

// Handler serves the checkout API.
type Handler struct {
	checkout Checkout
}

// NewHandler constructs a Handler delegating to checkout.
func NewHandler(checkout Checkout) *Handler {
	return &Handler{checkout: checkout}
}

// Routes registers the API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

func writeError(w http.ResponseWriter, status int, message string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()

	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
