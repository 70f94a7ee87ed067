package port

import "context"

type PaymentRequest struct {
	Amount   int64
	Currency string
	Token    string
	// IdempotencyKey is the same for every attempt to charge one checkout with
	// one token; gateways pass it on so the provider charges at most once.
	IdempotencyKey string
}

type PaymentConfirmation struct {
	ID string
}

type PaymentGateway interface {
	// Confirm charges amount using the granted token. A nil error with an
	// empty confirmation id is treated as a failure by callers.
	Confirm(ctx context.Context, req PaymentRequest) (PaymentConfirmation, error)
}

// PaymentDeclinedError is returned by gateways when the provider answered but
// refused the payment. Reason is safe to show to the buyer.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	if e.Reason == "" {
		return "payment declined"
	}
	return "payment declined: " + e.Reason
}
