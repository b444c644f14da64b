package http

import (
	"context"
	"sync"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/catalog"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/publisher"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
)

type memCartRepo struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*domain.Cart)}
}

func (r *memCartRepo) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	cart, ok := r.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (r *memCartRepo) UpsertCart(_ context.Context, cart *domain.Cart) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	r.carts[cart.SessionID] = &cp
	return nil
}

func (r *memCartRepo) DeleteCart(_ context.Context, sessionID string) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.carts[sessionID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(r.carts, sessionID)
	return nil
}

func (r *memCartRepo) getCart(sessionID string) *domain.Cart {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.carts[sessionID]
}

// nopCache always misses; handler tests exercise the repo path.
type nopCache struct{}

func (nopCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}
func (nopCache) Set(context.Context, string, *domain.Cart) error { return nil }
func (nopCache) Delete(context.Context, string) error            { return nil }

func newTestCartService() (*service.CartService, *memCartRepo) {
	repo := newMemCartRepo()
	return service.NewCartService(repo, nopCache{}), repo
}

type catalogMock struct {
	products map[int64]*domain.Product
	err      error
}

func (c *catalogMock) GetAllProducts(context.Context) ([]*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []*domain.Product
	for _, p := range c.products {
		out = append(out, p)
	}
	return out, nil
}

func (c *catalogMock) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (c *catalogMock) Close() error               { return nil }
func (c *catalogMock) RunMigrations(string) error { return nil }

type gatewayMock struct {
	ref  *payment.OrderRef
	err  error
	echo bool // respond with the requested amount/currency under a fixed order id
	got  *payment.OrderCreateRequest
}

func (g *gatewayMock) CreateOrder(_ context.Context, req *payment.OrderCreateRequest) (*payment.OrderRef, error) {
	g.got = req
	if g.err != nil {
		return nil, g.err
	}
	if g.echo {
		return &payment.OrderRef{
			OrderID:  "order_mock_1",
			Amount:   req.Amount,
			Currency: req.Currency,
		}, nil
	}
	return g.ref, nil
}

// recordingVerifier counts invocations so tests can prove malformed requests
// never reach the HMAC.
type recordingVerifier struct {
	m      sync.Mutex
	calls  int
	result bool
}

func (v *recordingVerifier) Verify(_, _, _ string) bool {
	v.m.Lock()
	defer v.m.Unlock()
	v.calls++
	return v.result
}

func (v *recordingVerifier) callCount() int {
	v.m.Lock()
	defer v.m.Unlock()
	return v.calls
}

type recordingPublisher struct {
	m        sync.Mutex
	outcomes []publisher.Outcome
}

func (p *recordingPublisher) PublishOutcome(_ context.Context, o publisher.Outcome) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.outcomes = append(p.outcomes, o)
	return nil
}

func (p *recordingPublisher) published() []publisher.Outcome {
	p.m.Lock()
	defer p.m.Unlock()
	return append([]publisher.Outcome(nil), p.outcomes...)
}
