package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rl1809/acp-checkout/internal/port"
)

// DeclineTokenPrefix marks tokens the simulated gateway refuses.
const DeclineTokenPrefix = "tok_decline"

// SimulatedGateway approves every non-empty token without calling out. It is
// meant for local runs and demos. Like a real provider it answers a repeated
// idempotency key with the original confirmation.
type SimulatedGateway struct {
	mu        sync.Mutex
	confirmed map[string]string
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{confirmed: make(map[string]string)}
}

func (g *SimulatedGateway) Confirm(ctx context.Context, req port.PaymentRequest) (port.PaymentConfirmation, error) {
	if req.Token == "" {
		return port.PaymentConfirmation{}, &port.PaymentDeclinedError{Reason: "Payment token is required"}
	}
	if strings.HasPrefix(req.Token, DeclineTokenPrefix) {
		return port.PaymentConfirmation{}, &port.PaymentDeclinedError{Reason: "Your card was declined."}
	}

	if req.IdempotencyKey == "" {
		return port.PaymentConfirmation{ID: "pi_sim_" + uuid.NewString()}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.confirmed[req.IdempotencyKey]
	if !ok {
		id = "pi_sim_" + uuid.NewString()
		g.confirmed[req.IdempotencyKey] = id
	}
	return port.PaymentConfirmation{ID: id}, nil
}
