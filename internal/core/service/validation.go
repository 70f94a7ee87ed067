package service

import (
	"fmt"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/port"
)

const (
	CodeMissing    = "missing"
	CodeInvalid    = "invalid"
	CodeOutOfStock = "out_of_stock"
)

// ValidateItems checks a requested item list against the catalog. Errors are
// reported in input order; an entry may produce more than one. An empty
// result means the list is acceptable.
func ValidateItems(items []domain.ItemRequest, products port.ProductCatalog) []domain.FieldError {
	if len(items) == 0 {
		return []domain.FieldError{
			domain.NewFieldError(CodeMissing, "$.items", "Items array is required and cannot be empty"),
		}
	}

	var errs []domain.FieldError
	for i, item := range items {
		var product domain.Product
		found := false

		if item.ID == "" {
			errs = append(errs, domain.NewFieldError(CodeMissing,
				fmt.Sprintf("$.items[%d].id", i), "Item id is required"))
		} else {
			product, found = products.FindProduct(item.ID)
			if !found {
				errs = append(errs, domain.NewFieldError(CodeInvalid,
					fmt.Sprintf("$.items[%d].id", i), fmt.Sprintf("Product %s not found", item.ID)))
			}
		}

		if item.Quantity < 1 {
			errs = append(errs, domain.NewFieldError(CodeInvalid,
				fmt.Sprintf("$.items[%d].quantity", i), "Quantity must be at least 1"))
		}

		if found && item.Quantity >= 1 && item.Quantity > product.Stock {
			errs = append(errs, domain.NewFieldError(CodeOutOfStock,
				fmt.Sprintf("$.items[%d]", i),
				fmt.Sprintf("Only %d units available for %s", product.Stock, product.Name)))
		}
	}

	return errs
}
