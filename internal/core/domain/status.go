package domain

type CheckoutStatus string

const (
	CheckoutStatusNotReadyForPayment CheckoutStatus = "not_ready_for_payment"
	CheckoutStatusReadyForPayment    CheckoutStatus = "ready_for_payment"
	// CheckoutStatusInProgress is part of the protocol but no transition produces it.
	CheckoutStatusInProgress CheckoutStatus = "in_progress"
	CheckoutStatusCompleted  CheckoutStatus = "completed"
	CheckoutStatusCanceled   CheckoutStatus = "canceled"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusCanceled
}

func (s CheckoutStatus) String() string {
	return string(s)
}

// DeriveStatus computes the payable status of a non-terminal session from its
// current fulfillment address and selected option.
func DeriveStatus(address *Address, fulfillmentOptionID *string) CheckoutStatus {
	if address != nil && fulfillmentOptionID != nil {
		return CheckoutStatusReadyForPayment
	}
	return CheckoutStatusNotReadyForPayment
}
