package payment

import (
	"errors"
	"fmt"
	"math"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/google/uuid"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// OrderCreateRequest is the authoritative order the gateway is asked to
// charge. Amount is in minor units (paise for INR) so no float ever crosses
// the wire.
type OrderCreateRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// OrderRef is the gateway's reply. Everything in it is untrusted until the
// callback signature over its order id checks out.
type OrderRef struct {
	OrderID  string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// BuildOrderRequest derives the chargeable amount from the cart's current
// total, exactly once, at this boundary. The conversion to minor units rounds
// half away from zero (math.Round); the handler must never recompute the
// amount from floats again.
//
// The receipt is unique per request; gateways use it for deduplication.
func BuildOrderRequest(cart *domain.Cart, currency string) (*OrderCreateRequest, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	amount := int64(math.Round(cart.Total() * 100))
	if amount <= 0 {
		return nil, ErrEmptyCart
	}

	return &OrderCreateRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  fmt.Sprintf("rcpt_%s", uuid.NewString()),
	}, nil
}
