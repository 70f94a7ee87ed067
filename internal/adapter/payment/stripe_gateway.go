package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/rl1809/acp-checkout/internal/logger"
	"github.com/rl1809/acp-checkout/internal/port"
)

const (
	paymentIntentsPath   = "/v1/payment_intents"
	breakerFailures      = 5
	breakerOpenTimeout   = 30 * time.Second
	maxResponseBodyBytes = 1 << 20
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type StripeConfig struct {
	BaseURL string
	APIKey  string
	Version string
	Timeout time.Duration
}

// StripeGateway confirms payments by creating a confirmed payment intent with
// a shared payment token. Transport errors and 5xx answers trip the breaker;
// declines do not.
type StripeGateway struct {
	cfg     StripeConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[port.PaymentConfirmation]
	log     *logger.Logger
}

type intentResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Error  *stripeError `json:"error"`
}

type stripeError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewStripeGateway(cfg StripeConfig, log *logger.Logger) *StripeGateway {
	if log == nil {
		log = logger.Nop()
	}
	g := &StripeGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
	g.breaker = gobreaker.NewCircuitBreaker[port.PaymentConfirmation](gobreaker.Settings{
		Name:    "stripe-payment-intents",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			var declined *port.PaymentDeclinedError
			return err == nil || errors.As(err, &declined)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return g
}

func (g *StripeGateway) Confirm(ctx context.Context, req port.PaymentRequest) (port.PaymentConfirmation, error) {
	confirmation, err := g.breaker.Execute(func() (port.PaymentConfirmation, error) {
		return g.createIntent(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return port.PaymentConfirmation{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return confirmation, err
}

func (g *StripeGateway) createIntent(ctx context.Context, req port.PaymentRequest) (port.PaymentConfirmation, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("confirm", "true")
	form.Set("shared_payment_granted_token", req.Token)
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + paymentIntentsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return port.PaymentConfirmation{}, fmt.Errorf("build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	if g.cfg.Version != "" {
		httpReq.Header.Set("Stripe-Version", g.cfg.Version)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return port.PaymentConfirmation{}, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return port.PaymentConfirmation{}, fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return port.PaymentConfirmation{}, fmt.Errorf("read payment response: %w", err)
	}

	var intent intentResponse
	if err := json.Unmarshal(body, &intent); err != nil {
		return port.PaymentConfirmation{}, fmt.Errorf("decode payment response: %w", err)
	}

	if intent.Error != nil || intent.ID == "" {
		declined := &port.PaymentDeclinedError{}
		if intent.Error != nil {
			declined.Reason = intent.Error.Message
		}
		g.log.Info("payment intent rejected", "http_status", resp.StatusCode, "reason", declined.Reason)
		return port.PaymentConfirmation{}, declined
	}

	g.log.Info("payment intent confirmed", "payment_intent", intent.ID, "intent_status", intent.Status, "amount", req.Amount)
	return port.PaymentConfirmation{ID: intent.ID}, nil
}
