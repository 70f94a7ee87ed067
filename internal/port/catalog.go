package port

import "github.com/rl1809/acp-checkout/internal/core/domain"

type ProductCatalog interface {
	// FindProduct looks up a product by id
	FindProduct(id string) (domain.Product, bool)

	// Products lists every product ordered by id
	Products() []domain.Product
}

type FulfillmentCatalog interface {
	// FulfillmentOptions returns a fresh copy of the option set
	FulfillmentOptions() []domain.FulfillmentOption

	// DefaultFulfillmentOptionID is the option selected when an address arrives first
	DefaultFulfillmentOptionID() string

	// PolicyLinks returns a fresh copy of the links attached to new sessions
	PolicyLinks() []domain.Link
}
