// Package catalog holds the static storefront data: products, fulfillment
// options and policy links. It is read-only after Load.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rl1809/acp-checkout/internal/core/domain"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type document struct {
	Products                 []domain.Product           `yaml:"products"`
	FulfillmentOptions       []domain.FulfillmentOption `yaml:"fulfillment_options"`
	DefaultFulfillmentOption string                     `yaml:"default_fulfillment_option"`
	Links                    []domain.Link              `yaml:"links"`
}

type Catalog struct {
	products      map[string]domain.Product
	ordered       []domain.Product
	options       []domain.FulfillmentOption
	defaultOption string
	links         []domain.Link
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products: make(map[string]domain.Product, len(doc.Products)),
		links:    doc.Links,
	}

	for _, p := range doc.Products {
		if p.ID == "" {
			return nil, errors.New("product without id")
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %q", p.ID)
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("product %q: price and stock must not be negative", p.ID)
		}
		c.products[p.ID] = p
		c.ordered = append(c.ordered, p)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })

	if len(doc.FulfillmentOptions) == 0 {
		return nil, errors.New("at least one fulfillment option is required")
	}
	seen := make(map[string]bool, len(doc.FulfillmentOptions))
	for _, opt := range doc.FulfillmentOptions {
		if opt.ID == "" {
			return nil, errors.New("fulfillment option without id")
		}
		if seen[opt.ID] {
			return nil, fmt.Errorf("duplicate fulfillment option %q", opt.ID)
		}
		if opt.Total < 0 {
			return nil, fmt.Errorf("fulfillment option %q: total must not be negative", opt.ID)
		}
		if opt.Type == "" {
			opt.Type = domain.FulfillmentTypeShipping
		}
		seen[opt.ID] = true
		c.options = append(c.options, opt)
	}

	c.defaultOption = doc.DefaultFulfillmentOption
	if c.defaultOption == "" {
		c.defaultOption = c.options[0].ID
	}
	if !seen[c.defaultOption] {
		return nil, fmt.Errorf("default fulfillment option %q is not defined", c.defaultOption)
	}

	return c, nil
}

func (c *Catalog) FindProduct(id string) (domain.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) FulfillmentOptions() []domain.FulfillmentOption {
	out := make([]domain.FulfillmentOption, len(c.options))
	copy(out, c.options)
	return out
}

func (c *Catalog) DefaultFulfillmentOptionID() string {
	return c.defaultOption
}

func (c *Catalog) PolicyLinks() []domain.Link {
	out := make([]domain.Link, len(c.links))
	copy(out, c.links)
	return out
}
