package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/publisher"
	"github.com/fjod/go_shop/internal/service"
)

// SignatureVerifier is the slice of internal/payment the handler needs.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type PaymentHandler struct {
	carts    *service.CartService
	gateway  payment.Gateway
	verifier SignatureVerifier
	outcomes publisher.OutcomePublisher
	keyID    string
	currency string
	timeout  time.Duration
}

func NewPaymentHandler(
	carts *service.CartService,
	gateway payment.Gateway,
	verifier SignatureVerifier,
	outcomes publisher.OutcomePublisher,
	keyID, currency string,
	timeout time.Duration,
) *PaymentHandler {
	return &PaymentHandler{
		carts:    carts,
		gateway:  gateway,
		verifier: verifier,
		outcomes: outcomes,
		keyID:    keyID,
		currency: currency,
		timeout:  timeout,
	}
}

// OrderResponseDTO configures the processor's client-side checkout widget.
// key_id is the account's public half; the secret never leaves the process.
type OrderResponseDTO struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type VerifyRequestDTO struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

type VerifyResponseDTO struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// POST /api/v1/payment/order
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session id")
		return
	}

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	orderReq, err := payment.BuildOrderRequest(cart, h.currency)
	if err != nil {
		if errors.Is(err, payment.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to build order")
		return
	}

	ref, err := h.gateway.CreateOrder(ctx, orderReq)
	if err != nil {
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			log.Printf("gateway create order failed request_id=%s: %v", getRequestID(r.Context()), gwErr)
			respondError(w, http.StatusBadGateway, "gateway_error", "payment gateway is unavailable, try again")
			return
		}
		log.Printf("create order failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "gateway_error", "payment gateway is unavailable, try again")
		return
	}

	respondJSON(w, http.StatusCreated, OrderResponseDTO{
		OrderID:  ref.OrderID,
		Amount:   ref.Amount,
		Currency: ref.Currency,
		KeyID:    h.keyID,
	})
}

// POST /api/v1/payment/verify
//
// A mismatch is a business outcome, not a server fault: it responds
// {verified:false} and is logged and published separately from errors. The
// cart is cleared only on a verified payment, so a rejected or failed attempt
// can be retried from the same cart.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session id")
		return
	}

	var req VerifyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// All three fields are required before any HMAC work happens
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "malformed_request",
			"orderId, paymentId and signature are required")
		return
	}

	verified := h.verifier.Verify(req.OrderID, req.PaymentID, req.Signature)

	h.publishOutcome(req.OrderID, req.PaymentID, verified)

	if !verified {
		log.Printf("payment verification mismatch order_id=%s request_id=%s",
			req.OrderID, getRequestID(r.Context()))
		respondJSON(w, http.StatusBadRequest, VerifyResponseDTO{
			Verified: false,
			Message:  "signature verification failed",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		// The payment is verified either way; an unswept cart is recoverable
		log.Printf("failed to clear cart after verified payment session_id=%s: %v", sessionID, err)
	}

	respondJSON(w, http.StatusOK, VerifyResponseDTO{Verified: true})
}

func (h *PaymentHandler) publishOutcome(orderID, paymentID string, verified bool) {
	outcome := publisher.Outcome{
		OrderID:   orderID,
		PaymentID: paymentID,
		Verified:  verified,
		At:        time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.outcomes.PublishOutcome(ctx, outcome); err != nil {
			log.Printf("failed to publish payment outcome order_id=%s: %v", orderID, err)
		}
	}()
}
