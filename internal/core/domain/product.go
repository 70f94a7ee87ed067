package domain

// Product is a catalog entry. Price is in minor currency units.
type Product struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Price       int64  `json:"price" yaml:"price"`
	Stock       int    `json:"stock" yaml:"stock"`
	Image       string `json:"image,omitempty" yaml:"image"`
}

type FulfillmentType string

const (
	FulfillmentTypeShipping FulfillmentType = "shipping"
	FulfillmentTypeDigital  FulfillmentType = "digital"
)

type FulfillmentOption struct {
	Type     FulfillmentType `json:"type" yaml:"type"`
	ID       string          `json:"id" yaml:"id"`
	Title    string          `json:"title" yaml:"title"`
	Subtitle string          `json:"subtitle" yaml:"subtitle"`
	Carrier  string          `json:"carrier" yaml:"carrier"`
	Subtotal int64           `json:"subtotal" yaml:"subtotal"`
	Tax      int64           `json:"tax" yaml:"tax"`
	Total    int64           `json:"total" yaml:"total"`
}

type LinkType string

const (
	LinkTypeTermsOfUse         LinkType = "terms_of_use"
	LinkTypePrivacyPolicy      LinkType = "privacy_policy"
	LinkTypeSellerShopPolicies LinkType = "seller_shop_policies"
)

type Link struct {
	Type LinkType `json:"type" yaml:"type"`
	URL  string   `json:"url" yaml:"url"`
}
