package domain

import "encoding/json"

const CurrencyUSD = "usd"

type TotalType string

const (
	TotalTypeItemsBaseAmount TotalType = "items_base_amount"
	TotalTypeItemsDiscount   TotalType = "items_discount"
	TotalTypeSubtotal        TotalType = "subtotal"
	TotalTypeDiscount        TotalType = "discount"
	TotalTypeFulfillment     TotalType = "fulfillment"
	TotalTypeTax             TotalType = "tax"
	TotalTypeFee             TotalType = "fee"
	TotalTypeTotal           TotalType = "total"
)

type MessageType string

const (
	MessageTypeInfo  MessageType = "info"
	MessageTypeError MessageType = "error"
)

const ContentTypePlain = "plain"

// ItemRequest is a requested product and quantity as supplied by a client.
// An empty ID or a zero Quantity means the field was absent.
type ItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// UnmarshalJSON never fails. A field of the wrong type, or an entry that is
// not an object, is left zero so item validation reports it against its path.
func (r *ItemRequest) UnmarshalJSON(data []byte) error {
	*r = ItemRequest{}

	var raw struct {
		ID       json.RawMessage `json:"id"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if len(raw.ID) > 0 {
		_ = json.Unmarshal(raw.ID, &r.ID)
	}
	if len(raw.Quantity) > 0 {
		_ = json.Unmarshal(raw.Quantity, &r.Quantity)
	}
	return nil
}

type LineItem struct {
	ID         string      `json:"id"`
	Item       ItemRequest `json:"item"`
	BaseAmount int64       `json:"base_amount"`
	Discount   int64       `json:"discount"`
	Subtotal   int64       `json:"subtotal"`
	Tax        int64       `json:"tax"`
	Total      int64       `json:"total"`
}

type Total struct {
	Type        TotalType `json:"type"`
	DisplayText string    `json:"display_text"`
	Amount      int64     `json:"amount"`
}

type Buyer struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

type Address struct {
	Name       string  `json:"name"`
	LineOne    string  `json:"line_one"`
	LineTwo    *string `json:"line_two"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postal_code"`
}

type Message struct {
	Type        MessageType `json:"type"`
	ContentType string      `json:"content_type"`
	Content     string      `json:"content"`
}

type PaymentProvider struct {
	Provider                string   `json:"provider"`
	SupportedPaymentMethods []string `json:"supported_payment_methods"`
}

// PaymentData is what the buyer's agent hands over to complete a checkout.
type PaymentData struct {
	Token          string   `json:"token"`
	Provider       string   `json:"provider"`
	BillingAddress *Address `json:"billing_address,omitempty"`
}

// Session is the checkout session aggregate. Its JSON form is the snapshot
// returned to clients and the document kept by the storage adapters.
type Session struct {
	ID                  string              `json:"id"`
	Buyer               *Buyer              `json:"buyer"`
	Status              CheckoutStatus      `json:"status"`
	Currency            string              `json:"currency"`
	LineItems           []LineItem          `json:"line_items"`
	FulfillmentAddress  *Address            `json:"fulfillment_address"`
	FulfillmentOptions  []FulfillmentOption `json:"fulfillment_options"`
	FulfillmentOptionID *string             `json:"fulfillment_option_id"`
	Totals              []Total             `json:"totals"`
	Messages            []Message           `json:"messages"`
	Links               []Link              `json:"links"`
	PaymentProvider     *PaymentProvider    `json:"payment_provider,omitempty"`

	// Version is the storage revision used for optimistic locking. It is not
	// part of the snapshot.
	Version int `json:"-"`
}

// FindFulfillmentOption returns the session's option with the given id.
func (s *Session) FindFulfillmentOption(id string) (FulfillmentOption, bool) {
	for _, opt := range s.FulfillmentOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return FulfillmentOption{}, false
}

// SelectedFulfillmentOption returns the option referenced by FulfillmentOptionID, if any.
func (s *Session) SelectedFulfillmentOption() *FulfillmentOption {
	if s.FulfillmentOptionID == nil {
		return nil
	}
	opt, ok := s.FindFulfillmentOption(*s.FulfillmentOptionID)
	if !ok {
		return nil
	}
	return &opt
}

// TotalAmount returns the amount of the given total type, or 0 when absent.
func (s *Session) TotalAmount(t TotalType) int64 {
	for _, total := range s.Totals {
		if total.Type == t {
			return total.Amount
		}
	}
	return 0
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Buyer = s.Buyer.Clone()
	c.FulfillmentAddress = s.FulfillmentAddress.Clone()
	c.FulfillmentOptionID = cloneString(s.FulfillmentOptionID)
	c.LineItems = cloneSlice(s.LineItems)
	c.FulfillmentOptions = cloneSlice(s.FulfillmentOptions)
	c.Totals = cloneSlice(s.Totals)
	c.Messages = cloneSlice(s.Messages)
	c.Links = cloneSlice(s.Links)
	if s.PaymentProvider != nil {
		pp := *s.PaymentProvider
		pp.SupportedPaymentMethods = cloneSlice(s.PaymentProvider.SupportedPaymentMethods)
		c.PaymentProvider = &pp
	}
	return &c
}

func (b *Buyer) Clone() *Buyer {
	if b == nil {
		return nil
	}
	c := *b
	c.PhoneNumber = cloneString(b.PhoneNumber)
	return &c
}

func (a *Address) Clone() *Address {
	if a == nil {
		return nil
	}
	c := *a
	c.LineTwo = cloneString(a.LineTwo)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// cloneSlice keeps the nil/empty distinction so snapshots encode the same way.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
