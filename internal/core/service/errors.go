package service

import "github.com/rl1809/acp-checkout/internal/core/domain"

var (
	ErrCheckoutNotFound = &domain.Error{
		Kind: domain.KindNotFound, Type: domain.ErrorTypeInvalidRequest,
		Code: "not_found", Message: "Checkout not found",
	}
	ErrValidation = &domain.Error{
		Kind: domain.KindValidation, Type: domain.ErrorTypeInvalidRequest,
		Code: "validation_error", Message: "Request validation failed",
	}
	ErrInvalidFulfillmentOption = &domain.Error{
		Kind: domain.KindValidation, Type: domain.ErrorTypeInvalidRequest,
		Code: "invalid_fulfillment_option", Message: "Fulfillment option not found",
	}
	ErrMissingPaymentData = &domain.Error{
		Kind: domain.KindValidation, Type: domain.ErrorTypeInvalidRequest,
		Code: "missing_payment_data", Message: "Payment data is required",
	}
	ErrCheckoutCompleted = &domain.Error{
		Kind: domain.KindConflict, Type: domain.ErrorTypeInvalidRequest,
		Code: "checkout_completed", Message: "Cannot update a completed checkout",
	}
	ErrCheckoutCanceled = &domain.Error{
		Kind: domain.KindConflict, Type: domain.ErrorTypeInvalidRequest,
		Code: "checkout_canceled", Message: "Cannot update a canceled checkout",
	}
	ErrCheckoutAlreadyCompleted = &domain.Error{
		Kind: domain.KindConflict, Type: domain.ErrorTypeInvalidRequest,
		Code: "checkout_already_completed", Message: "Checkout is already completed",
	}
	ErrCheckoutAlreadyCanceled = &domain.Error{
		Kind: domain.KindConflict, Type: domain.ErrorTypeInvalidRequest,
		Code: "checkout_already_canceled", Message: "Checkout is already canceled",
	}
	ErrPaymentFailed = &domain.Error{
		Kind: domain.KindUpstream, Type: domain.ErrorTypeInvalidRequest,
		Code: "payment_intent_execution_failed", Message: "Payment intent execution failed",
	}
	ErrInternal = &domain.Error{
		Kind: domain.KindInternal, Type: domain.ErrorTypeProcessingError,
		Code: "internal_error", Message: "An error occurred while processing the checkout",
	}
)

func validationError(errs []domain.FieldError) *domain.Error {
	e := *ErrValidation
	e.Errors = errs
	return &e
}
