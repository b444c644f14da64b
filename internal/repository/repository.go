package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the interface for cart persistence.
// The cart mutation rules live in domain.Cart; the repository only loads and
// stores whole carts, so the service layer can do read-modify-write under a
// per-session lock.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}
