package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/port"
)

// Mock SessionRepository
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	putErr   error
	getErr   error
	puts     int
	// lockedPuts counts writes made with a context from mockLocker for the same session
	lockedPuts int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.sessions[id].Clone(), nil
}

func (m *mockSessionRepo) Put(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	if held, _ := ctx.Value(lockedKey{}).(string); held == session.ID {
		m.lockedPuts++
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Mock SessionLocker
type lockedKey struct{}

type mockLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMockLocker() *mockLocker {
	return &mockLocker{locks: make(map[string]*sync.Mutex)}
}

func (m *mockLocker) Lock(ctx context.Context, id string) (context.Context, func(), error) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()

	l.Lock()
	return context.WithValue(ctx, lockedKey{}, id), l.Unlock, nil
}

// Mock PaymentGateway
type mockGateway struct {
	mu       sync.Mutex
	calls    atomic.Int32
	requests []port.PaymentRequest
	confirm  func(req port.PaymentRequest) (port.PaymentConfirmation, error)
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		confirm: func(req port.PaymentRequest) (port.PaymentConfirmation, error) {
			return port.PaymentConfirmation{ID: "pi_test"}, nil
		},
	}
}

func (m *mockGateway) Confirm(ctx context.Context, req port.PaymentRequest) (port.PaymentConfirmation, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.confirm(req)
}

// Static catalog covering products and fulfillment
type staticCatalog struct {
	products map[string]domain.Product
}

func newStaticCatalog() *staticCatalog {
	return &staticCatalog{products: map[string]domain.Product{
		"item_123": {ID: "item_123", Name: "The Origins of Efficiency", Price: 4000, Stock: 100},
		"item_456": {ID: "item_456", Name: "Scaling People", Price: 3500, Stock: 50},
		"item_789": {ID: "item_789", Name: "Pieces of the Action", Price: 2400, Stock: 25},
	}}
}

func (c *staticCatalog) FindProduct(id string) (domain.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *staticCatalog) Products() []domain.Product {
	return []domain.Product{c.products["item_123"], c.products["item_456"], c.products["item_789"]}
}

func (c *staticCatalog) FulfillmentOptions() []domain.FulfillmentOption {
	return []domain.FulfillmentOption{
		{Type: domain.FulfillmentTypeShipping, ID: "shipping_standard", Title: "Standard Shipping", Subtotal: 300, Total: 300},
		{Type: domain.FulfillmentTypeShipping, ID: "shipping_fast", Title: "Express Shipping", Subtotal: 500, Total: 500},
		{Type: domain.FulfillmentTypeShipping, ID: "shipping_overnight", Title: "Overnight Shipping", Subtotal: 800, Total: 800},
	}
}

func (c *staticCatalog) DefaultFulfillmentOptionID() string {
	return "shipping_standard"
}

func (c *staticCatalog) PolicyLinks() []domain.Link {
	return []domain.Link{
		{Type: domain.LinkTypeTermsOfUse, URL: "https://example.com/terms"},
		{Type: domain.LinkTypePrivacyPolicy, URL: "https://example.com/privacy"},
	}
}
