package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RazorpayGateway talks to the Razorpay Orders REST API. The breaker fails
// fast while the processor is down; it never re-issues a call.
type RazorpayGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*OrderRef]
}

func NewRazorpayGateway(baseURL, keyID, keySecret string) *RazorpayGateway {
	breaker := gobreaker.NewCircuitBreaker[*OrderRef](gobreaker.Settings{
		Name:    "razorpay-orders",
		Timeout: 30 * time.Second,
	})

	return &RazorpayGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		breaker: breaker,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req *OrderCreateRequest) (*OrderRef, error) {
	return g.breaker.Execute(func() (*OrderRef, error) {
		return g.createOrder(ctx, req)
	})
}

func (g *RazorpayGateway) createOrder(ctx context.Context, req *OrderCreateRequest) (*OrderRef, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
		}
	}

	var ref OrderRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("decode order response failed: %w", err)}
	}

	return &ref, nil
}
