package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/logger"
	"github.com/rl1809/acp-checkout/internal/port"
)

const (
	messagePaymentSucceeded = "Payment processed successfully. Order confirmed!"
	messageCanceled         = "Checkout has been canceled"
)

type CreateRequest struct {
	Items              []domain.ItemRequest `json:"items"`
	Buyer              *domain.Buyer        `json:"buyer"`
	FulfillmentAddress *domain.Address      `json:"fulfillment_address"`
}

// UpdateRequest carries only the fields the client supplied; nil means
// "leave unchanged". A non-nil Items replaces the whole item list.
type UpdateRequest struct {
	Items               *[]domain.ItemRequest `json:"items"`
	Buyer               *domain.Buyer         `json:"buyer"`
	FulfillmentAddress  *domain.Address       `json:"fulfillment_address"`
	FulfillmentOptionID *string               `json:"fulfillment_option_id"`
}

type CompleteRequest struct {
	PaymentData *domain.PaymentData `json:"payment_data"`
	Buyer       *domain.Buyer       `json:"buyer"`
}

type CheckoutService struct {
	sessions    port.SessionRepository
	locker      port.SessionLocker
	products    port.ProductCatalog
	fulfillment port.FulfillmentCatalog
	payments    port.PaymentGateway
	log         *logger.Logger
	newID       func() string
}

type Option func(*CheckoutService)

func WithLogger(l *logger.Logger) Option {
	return func(s *CheckoutService) { s.log = l }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *CheckoutService) { s.newID = fn }
}

func NewCheckoutService(
	sessions port.SessionRepository,
	locker port.SessionLocker,
	products port.ProductCatalog,
	fulfillment port.FulfillmentCatalog,
	payments port.PaymentGateway,
	opts ...Option,
) *CheckoutService {
	s := &CheckoutService{
		sessions:    sessions,
		locker:      locker,
		products:    products,
		fulfillment: fulfillment,
		payments:    payments,
		log:         logger.Nop(),
		newID:       func() string { return "checkout_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CheckoutService) Create(ctx context.Context, req CreateRequest) (*domain.Session, error) {
	if errs := ValidateItems(req.Items, s.products); len(errs) > 0 {
		return nil, validationError(errs)
	}

	lineItems, err := BuildLineItems(req.Items, s.products)
	if err != nil {
		return nil, s.internal("create", "", err)
	}

	session := &domain.Session{
		ID:                 s.newID(),
		Buyer:              normalizeBuyer(req.Buyer),
		Currency:           domain.CurrencyUSD,
		LineItems:          lineItems,
		FulfillmentAddress: normalizeAddress(req.FulfillmentAddress),
		FulfillmentOptions: s.fulfillment.FulfillmentOptions(),
		Messages:           []domain.Message{},
		Links:              s.fulfillment.PolicyLinks(),
		PaymentProvider:    newPaymentProvider(),
	}
	if session.FulfillmentAddress != nil {
		session.FulfillmentOptionID = s.defaultOptionID(session)
	}
	recompute(session)

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, s.internal("create", session.ID, err)
	}

	s.log.Info("checkout created", "checkout_id", session.ID, "status", session.Status,
		"total", session.TotalAmount(domain.TotalTypeTotal))
	return session.Clone(), nil
}

func (s *CheckoutService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.load(ctx, id)
}

// Update validates every supplied field before applying any of them, then
// recomputes totals and status from the resulting state.
func (s *CheckoutService) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Session, error) {
	ctx, unlock, err := s.lock(ctx, "update", id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rejectTerminal(current.Status, ErrCheckoutCompleted, ErrCheckoutCanceled); err != nil {
		return nil, err
	}

	next := current.Clone()

	if req.Items != nil {
		if errs := ValidateItems(*req.Items, s.products); len(errs) > 0 {
			return nil, validationError(errs)
		}
		lineItems, err := BuildLineItems(*req.Items, s.products)
		if err != nil {
			return nil, s.internal("update", id, err)
		}
		next.LineItems = lineItems
	}

	optionID := ""
	if req.FulfillmentOptionID != nil {
		optionID = *req.FulfillmentOptionID
	}
	if optionID != "" {
		if _, ok := next.FindFulfillmentOption(optionID); !ok {
			return nil, ErrInvalidFulfillmentOption.WithMessage("Fulfillment option %s not found", optionID)
		}
	}

	if req.Buyer != nil {
		next.Buyer = normalizeBuyer(req.Buyer)
	}
	if req.FulfillmentAddress != nil {
		next.FulfillmentAddress = normalizeAddress(req.FulfillmentAddress)
		if next.FulfillmentOptionID == nil {
			next.FulfillmentOptionID = s.defaultOptionID(next)
		}
	}
	if optionID != "" {
		next.FulfillmentOptionID = &optionID
	}

	recompute(next)

	if err := s.sessions.Put(ctx, next); err != nil {
		return nil, s.internal("update", id, err)
	}

	s.log.Info("checkout updated", "checkout_id", id, "status", next.Status,
		"total", next.TotalAmount(domain.TotalTypeTotal))
	return next.Clone(), nil
}

// Complete charges the session total through the payment gateway. The session
// is stored only after the gateway confirms; a failed charge leaves it as it
// was. Once the lock is held the call runs to the end even if ctx is canceled.
func (s *CheckoutService) Complete(ctx context.Context, id string, req CompleteRequest) (*domain.Session, error) {
	ctx, unlock, err := s.lock(ctx, "complete", id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rejectTerminal(current.Status,
		ErrCheckoutAlreadyCompleted,
		ErrCheckoutCanceled.WithMessage("Cannot complete a canceled checkout"),
	); err != nil {
		return nil, err
	}

	if req.PaymentData == nil {
		return nil, ErrMissingPaymentData
	}

	next := current.Clone()
	if req.Buyer != nil {
		next.Buyer = normalizeBuyer(req.Buyer)
	}

	amount := next.TotalAmount(domain.TotalTypeTotal)
	confirmation, err := s.payments.Confirm(ctx, port.PaymentRequest{
		Amount:         amount,
		Currency:       next.Currency,
		Token:          req.PaymentData.Token,
		IdempotencyKey: paymentIdempotencyKey(id, req.PaymentData.Token),
	})
	if err != nil || confirmation.ID == "" {
		return nil, s.paymentFailure(id, err)
	}

	next.Status = domain.CheckoutStatusCompleted
	next.Messages = append(next.Messages, domain.Message{
		Type:        domain.MessageTypeInfo,
		ContentType: domain.ContentTypePlain,
		Content:     messagePaymentSucceeded,
	})
	next.PaymentProvider = nil

	if err := s.sessions.Put(ctx, next); err != nil {
		s.log.Error("CRITICAL payment captured but checkout not stored",
			"checkout_id", id, "confirmation_id", confirmation.ID, "amount", amount, "error", err)
		return nil, s.internal("complete", id, err)
	}

	s.log.Info("checkout completed", "checkout_id", id, "confirmation_id", confirmation.ID, "amount", amount)
	return next.Clone(), nil
}

func (s *CheckoutService) Cancel(ctx context.Context, id string) (*domain.Session, error) {
	ctx, unlock, err := s.lock(ctx, "cancel", id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rejectTerminal(current.Status,
		ErrCheckoutCompleted.WithMessage("Cannot cancel a completed checkout"),
		ErrCheckoutAlreadyCanceled,
	); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Status = domain.CheckoutStatusCanceled
	next.Messages = append(next.Messages, domain.Message{
		Type:        domain.MessageTypeInfo,
		ContentType: domain.ContentTypePlain,
		Content:     messageCanceled,
	})

	if err := s.sessions.Put(ctx, next); err != nil {
		return nil, s.internal("cancel", id, err)
	}

	s.log.Info("checkout canceled", "checkout_id", id)
	return next.Clone(), nil
}

func (s *CheckoutService) ListProducts() []domain.Product {
	return s.products.Products()
}

func (s *CheckoutService) lock(ctx context.Context, op, id string) (context.Context, func(), error) {
	lockedCtx, unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, nil, s.internal(op, id, fmt.Errorf("acquire session lock: %w", err))
	}
	return lockedCtx, unlock, nil
}

func (s *CheckoutService) load(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, s.internal("load", id, err)
	}
	if session == nil {
		return nil, ErrCheckoutNotFound.WithMessage("Checkout %s not found", id)
	}
	return session, nil
}

func (s *CheckoutService) paymentFailure(id string, err error) error {
	var declined *port.PaymentDeclinedError
	if errors.As(err, &declined) {
		s.log.Warn("payment declined", "checkout_id", id, "reason", declined.Reason)
		if declined.Reason != "" {
			return ErrPaymentFailed.WithMessage("%s", declined.Reason)
		}
		return ErrPaymentFailed
	}
	s.log.Error("payment gateway failed", "checkout_id", id, "error", err)
	return ErrPaymentFailed
}

func (s *CheckoutService) internal(op, id string, err error) error {
	s.log.Error("checkout operation failed", "op", op, "checkout_id", id, "error", err)
	return ErrInternal
}

// defaultOptionID picks the catalog default when the session offers it, and
// the first offered option otherwise.
func (s *CheckoutService) defaultOptionID(session *domain.Session) *string {
	if id := s.fulfillment.DefaultFulfillmentOptionID(); id != "" {
		if _, ok := session.FindFulfillmentOption(id); ok {
			return &id
		}
	}
	if len(session.FulfillmentOptions) == 0 {
		return nil
	}
	id := session.FulfillmentOptions[0].ID
	return &id
}

// rejectTerminal returns the error for a terminal status, or nil when the
// session can still change.
func rejectTerminal(status domain.CheckoutStatus, ifCompleted, ifCanceled error) error {
	if !status.IsTerminal() {
		return nil
	}
	if status == domain.CheckoutStatusCompleted {
		return ifCompleted
	}
	return ifCanceled
}

// recompute rebuilds totals and status from the current line items, address
// and selected option. It runs at the end of every non-terminal mutation.
func recompute(session *domain.Session) {
	session.Totals = CalculateTotals(session.LineItems, session.SelectedFulfillmentOption())
	session.Status = domain.DeriveStatus(session.FulfillmentAddress, session.FulfillmentOptionID)
}

// paymentIdempotencyKey is stable for one checkout and token, so a repeated
// charge attempt for the same payment is collapsed by the provider.
func paymentIdempotencyKey(checkoutID, token string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(checkoutID+"\x00"+token)).String()
}

func newPaymentProvider() *domain.PaymentProvider {
	return &domain.PaymentProvider{
		Provider:                "stripe",
		SupportedPaymentMethods: []string{"card"},
	}
}

func normalizeBuyer(b *domain.Buyer) *domain.Buyer {
	c := b.Clone()
	if c != nil && c.PhoneNumber != nil && *c.PhoneNumber == "" {
		c.PhoneNumber = nil
	}
	return c
}

func normalizeAddress(a *domain.Address) *domain.Address {
	c := a.Clone()
	if c != nil && c.LineTwo != nil && *c.LineTwo == "" {
		c.LineTwo = nil
	}
	return c
}
