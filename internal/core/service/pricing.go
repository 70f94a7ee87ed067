package service

import (
	"fmt"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/port"
)

// BuildLineItems prices a validated item list. Discounts and tax are always zero.
func BuildLineItems(items []domain.ItemRequest, products port.ProductCatalog) ([]domain.LineItem, error) {
	lineItems := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		product, ok := products.FindProduct(item.ID)
		if !ok {
			return nil, fmt.Errorf("product %s vanished from catalog", item.ID)
		}

		baseAmount := product.Price * int64(item.Quantity)
		var discount, tax int64
		subtotal := baseAmount - discount

		lineItems = append(lineItems, domain.LineItem{
			ID:         item.ID,
			Item:       domain.ItemRequest{ID: item.ID, Quantity: item.Quantity},
			BaseAmount: baseAmount,
			Discount:   discount,
			Subtotal:   subtotal,
			Tax:        tax,
			Total:      subtotal + tax,
		})
	}
	return lineItems, nil
}

// CalculateTotals returns subtotal, fulfillment, tax and total, in that order.
func CalculateTotals(lineItems []domain.LineItem, option *domain.FulfillmentOption) []domain.Total {
	var subtotal, tax int64
	for _, li := range lineItems {
		subtotal += li.Subtotal
		tax += li.Tax
	}

	var fulfillment int64
	if option != nil {
		fulfillment = option.Total
	}

	return []domain.Total{
		{Type: domain.TotalTypeSubtotal, DisplayText: "Subtotal", Amount: subtotal},
		{Type: domain.TotalTypeFulfillment, DisplayText: "Shipping", Amount: fulfillment},
		{Type: domain.TotalTypeTax, DisplayText: "Tax", Amount: tax},
		{Type: domain.TotalTypeTotal, DisplayText: "Total", Amount: subtotal + fulfillment + tax},
	}
}
