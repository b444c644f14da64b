package publisher

import (
	"context"
	"time"
)

// Outcome is the result of one signature verification, published so
// downstream consumers can meter rejected signatures separately from
// legitimate payments (and spot replayed triples).
type Outcome struct {
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Verified  bool      `json:"verified"`
	At        time.Time `json:"at"`
}

type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, outcome Outcome) error
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOutcome(context.Context, Outcome) error {
	return nil
}
