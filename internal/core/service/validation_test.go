package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/acp-checkout/internal/core/domain"
)

func TestValidateItems(t *testing.T) {
	catalog := newStaticCatalog()

	tests := []struct {
		name  string
		items []domain.ItemRequest
		want  []struct{ code, param string }
	}{
		{
			name:  "valid",
			items: []domain.ItemRequest{{ID: "item_123", Quantity: 2}, {ID: "item_456", Quantity: 50}},
		},
		{
			name: "nil list",
			want: []struct{ code, param string }{{CodeMissing, "$.items"}},
		},
		{
			name:  "empty list",
			items: []domain.ItemRequest{},
			want:  []struct{ code, param string }{{CodeMissing, "$.items"}},
		},
		{
			name:  "unknown id",
			items: []domain.ItemRequest{{ID: "unknown_id", Quantity: 1}},
			want:  []struct{ code, param string }{{CodeInvalid, "$.items[0].id"}},
		},
		{
			name:  "zero quantity",
			items: []domain.ItemRequest{{ID: "item_123", Quantity: 0}},
			want:  []struct{ code, param string }{{CodeInvalid, "$.items[0].quantity"}},
		},
		{
			name:  "negative quantity",
			items: []domain.ItemRequest{{ID: "item_123", Quantity: -3}},
			want:  []struct{ code, param string }{{CodeInvalid, "$.items[0].quantity"}},
		},
		{
			name:  "missing id",
			items: []domain.ItemRequest{{Quantity: 1}},
			want:  []struct{ code, param string }{{CodeMissing, "$.items[0].id"}},
		},
		{
			name:  "out of stock",
			items: []domain.ItemRequest{{ID: "item_123", Quantity: 1000}},
			want:  []struct{ code, param string }{{CodeOutOfStock, "$.items[0]"}},
		},
		{
			name:  "unknown id and zero quantity on one entry",
			items: []domain.ItemRequest{{ID: "nope", Quantity: 0}},
			want: []struct{ code, param string }{
				{CodeInvalid, "$.items[0].id"},
				{CodeInvalid, "$.items[0].quantity"},
			},
		},
		{
			name: "errors follow input order",
			items: []domain.ItemRequest{
				{ID: "item_123", Quantity: 1},
				{ID: "item_789", Quantity: 26},
				{Quantity: 0},
			},
			want: []struct{ code, param string }{
				{CodeOutOfStock, "$.items[1]"},
				{CodeMissing, "$.items[2].id"},
				{CodeInvalid, "$.items[2].quantity"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateItems(tt.items, catalog)
			require.Len(t, errs, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.code, errs[i].Code)
				assert.Equal(t, w.param, errs[i].Param)
				assert.Equal(t, domain.MessageTypeError, errs[i].Severity)
				assert.Equal(t, domain.ContentTypePlain, errs[i].ContentType)
				assert.NotEmpty(t, errs[i].Content)
			}
		})
	}
}

func TestValidateItems_OutOfStockMessage(t *testing.T) {
	errs := ValidateItems([]domain.ItemRequest{{ID: "item_789", Quantity: 30}}, newStaticCatalog())

	require.Len(t, errs, 1)
	assert.Equal(t, "Only 25 units available for Pieces of the Action", errs[0].Content)
}
