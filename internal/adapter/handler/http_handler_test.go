package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/acp-checkout/internal/adapter/payment"
	"github.com/rl1809/acp-checkout/internal/adapter/storage"
	"github.com/rl1809/acp-checkout/internal/catalog"
	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/core/service"
)

func newTestService() *service.CheckoutService {
	c := catalog.Default()
	return service.NewCheckoutService(
		storage.NewMemoryRepository(),
		storage.NewMemoryLocker(),
		c, c,
		payment.NewSimulatedGateway(),
	)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHTTPHandler(newTestService(), nil).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decodeSession(t *testing.T, body []byte) domain.Session {
	t.Helper()
	var s domain.Session
	require.NoError(t, json.Unmarshal(body, &s))
	return s
}

func decodeError(t *testing.T, body []byte) domain.Error {
	t.Helper()
	var e domain.Error
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

const addressJSON = `{"name":"John Doe","line_one":"123 Main St","city":"San Francisco","state":"CA","country":"US","postal_code":"94105"}`

func TestHTTP_FullCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts",
		`{"items":[{"id":"item_123","quantity":2}],"fulfillment_address":`+addressJSON+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	created := decodeSession(t, body)
	assert.True(t, strings.HasPrefix(created.ID, "checkout_"))
	assert.Equal(t, domain.CheckoutStatusReadyForPayment, created.Status)
	require.NotNil(t, created.FulfillmentOptionID)
	assert.Equal(t, "shipping_standard", *created.FulfillmentOptionID)
	assert.Equal(t, int64(8300), created.TotalAmount(domain.TotalTypeTotal))

	resp, body = doJSON(t, srv, http.MethodPut, "/checkouts/"+created.ID, `{"fulfillment_option_id":"shipping_fast"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	updated := decodeSession(t, body)
	assert.Equal(t, int64(8500), updated.TotalAmount(domain.TotalTypeTotal))

	resp, body = doJSON(t, srv, http.MethodGet, "/checkouts/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, updated.Totals, decodeSession(t, body).Totals)

	resp, body = doJSON(t, srv, http.MethodPost, "/checkouts/"+created.ID+"/complete",
		`{"payment_data":{"token":"tok_visa","provider":"stripe"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	completed := decodeSession(t, body)
	assert.Equal(t, domain.CheckoutStatusCompleted, completed.Status)
	require.Len(t, completed.Messages, 1)
	assert.Nil(t, completed.PaymentProvider)

	resp, body = doJSON(t, srv, http.MethodPost, "/checkouts/"+created.ID+"/complete",
		`{"payment_data":{"token":"tok_visa","provider":"stripe"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "checkout_already_completed", decodeError(t, body).Code)

	resp, body = doJSON(t, srv, http.MethodPost, "/checkouts/"+created.ID+"/cancel", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "checkout_completed", decodeError(t, body).Code)
}

func TestHTTP_CreateValidationEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts",
		`{"items":[{"id":"nope","quantity":1},{"id":"item_123","quantity":0}]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e := decodeError(t, body)
	assert.Equal(t, domain.ErrorTypeInvalidRequest, e.Type)
	assert.Equal(t, "validation_error", e.Code)
	assert.Equal(t, "Request validation failed", e.Message)
	require.Len(t, e.Errors, 2)
	assert.Equal(t, "$.items[0].id", e.Errors[0].Param)
	assert.Equal(t, "$.items[1].quantity", e.Errors[1].Param)
}

func TestHTTP_EmptyBodyIsValidationError(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "validation_error", e.Code)
	require.Len(t, e.Errors, 1)
	assert.Equal(t, "$.items", e.Errors[0].Param)
}

func TestHTTP_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", `{"items":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "invalid_body", e.Code)
	assert.Equal(t, domain.ErrorTypeInvalidRequest, e.Type)
}

func TestHTTP_MistypedItemsAreFieldErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		param string
	}{
		{"quantity as string", `{"items":[{"id":"item_123","quantity":"2"}]}`, "$.items[0].quantity"},
		{"id as number", `{"items":[{"id":123,"quantity":1}]}`, "$.items[0].id"},
		{"items as string", `{"items":"x"}`, "$.items"},
		{"items as object", `{"items":{"id":"item_123"}}`, "$.items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			e := decodeError(t, body)
			assert.Equal(t, "validation_error", e.Code)
			require.Len(t, e.Errors, 1)
			assert.Equal(t, tt.param, e.Errors[0].Param)
		})
	}

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", `[{"id":"item_123","quantity":1}]`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_body", decodeError(t, body).Code)
}

func TestHTTP_UpdateMistypedItems(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", `{"items":[{"id":"item_123","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeSession(t, body).ID

	resp, body = doJSON(t, srv, http.MethodPut, "/checkouts/"+id, `{"items":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	e := decodeError(t, body)
	assert.Equal(t, "validation_error", e.Code)
	require.Len(t, e.Errors, 1)
	assert.Equal(t, "$.items", e.Errors[0].Param)

	resp, body = doJSON(t, srv, http.MethodGet, "/checkouts/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeSession(t, body).LineItems, 1)
}

func TestHTTP_NotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/checkouts/missing", ""},
		{http.MethodPut, "/checkouts/missing", `{}`},
		{http.MethodPost, "/checkouts/missing/complete", `{"payment_data":{"token":"tok","provider":"stripe"}}`},
		{http.MethodPost, "/checkouts/missing/cancel", ""},
	} {
		resp, body := doJSON(t, srv, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, tc.method+" "+tc.path)
		assert.Equal(t, "not_found", decodeError(t, body).Code)
	}
}

func TestHTTP_CompleteDeclined(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", `{"items":[{"id":"item_456","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeSession(t, body).ID

	resp, body = doJSON(t, srv, http.MethodPost, "/checkouts/"+id+"/complete",
		`{"payment_data":{"token":"tok_decline_generic","provider":"stripe"}}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "payment_intent_execution_failed", decodeError(t, body).Code)

	resp, body = doJSON(t, srv, http.MethodGet, "/checkouts/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.CheckoutStatusNotReadyForPayment, decodeSession(t, body).Status)
}

func TestHTTP_CancelThenUpdate(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/checkouts", `{"items":[{"id":"item_789","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeSession(t, body).ID

	resp, body = doJSON(t, srv, http.MethodPost, "/checkouts/"+id+"/cancel", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.CheckoutStatusCanceled, decodeSession(t, body).Status)

	resp, body = doJSON(t, srv, http.MethodPut, "/checkouts/"+id, `{"items":[{"id":"item_123","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "checkout_canceled", decodeError(t, body).Code)
}

func TestHTTP_ProductsAndHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products ProductsResponse
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products.Products, 3)
	assert.Equal(t, "item_123", products.Products[0].ID)

	resp, body = doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrCheckoutCompleted))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrPaymentFailed))
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrCheckoutNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(service.ErrInternal))
}
