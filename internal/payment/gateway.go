package payment

import (
	"context"
	"fmt"
)

// Gateway abstracts the order-creation capability of the payment processor.
// The client-side checkout widget and its completion callback belong to the
// processor; this core only sees the callback's fields at verification time.
type Gateway interface {
	CreateOrder(ctx context.Context, req *OrderCreateRequest) (*OrderRef, error)
}

// GatewayError is a failed create-order round trip: transport failure or a
// non-success status from the processor. The caller decides whether to retry;
// this core never does.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway request failed: %v", e.Err)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
