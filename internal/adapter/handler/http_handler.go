package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/core/service"
	"github.com/rl1809/acp-checkout/internal/logger"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = &domain.Error{
	Kind: domain.KindValidation, Type: domain.ErrorTypeInvalidRequest,
	Code: "invalid_body", Message: "Request body must be a valid JSON object",
}

type HTTPHandler struct {
	checkouts *service.CheckoutService
	log       *logger.Logger
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewHTTPHandler(checkouts *service.CheckoutService, log *logger.Logger) *HTTPHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPHandler{checkouts: checkouts, log: log}
}

// Routes builds the router serving the checkout API.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Get("/products", h.ListProducts)

	r.Route("/checkouts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Post("/complete", h.Complete)
			r.Post("/cancel", h.Cancel)
		})
	})
	return r
}

// POST /checkouts
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequest
	if err := decodeCheckoutBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	session, err := h.checkouts.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, session)
}

// GET /checkouts/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkouts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// PUT /checkouts/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateRequest
	if err := decodeCheckoutBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	session, err := h.checkouts.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// POST /checkouts/{id}/complete
func (h *HTTPHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req service.CompleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	session, err := h.checkouts.Complete(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// POST /checkouts/{id}/cancel
func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkouts.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// GET /products
func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, ProductsResponse{Products: h.checkouts.ListProducts()})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Message: "Checkout service is running"})
}

// decodeBody reads a JSON object into dst. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidBody
	}
	if dec.More() {
		return errInvalidBody
	}
	return nil
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		h.log.Error("unexpected handler error", "path", r.URL.Path, "error", err)
		derr = service.ErrInternal
	}
	h.respondJSON(w, statusFor(derr), derr)
}

func statusFor(err *domain.Error) int {
	switch err.Kind {
	case domain.KindValidation, domain.KindConflict, domain.KindUpstream:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeCheckoutBody decodes a create or update body. An items value that is
// not an array is treated as an empty list so it fails field validation at
// $.items instead of rejecting the whole body.
func decodeCheckoutBody(w http.ResponseWriter, r *http.Request, dst any) error {
	var fields map[string]json.RawMessage
	if err := decodeBody(w, r, &fields); err != nil {
		return err
	}
	if fields == nil {
		return nil
	}
	if raw, ok := fields["items"]; ok && !isArrayOrNull(raw) {
		fields["items"] = json.RawMessage("[]")
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return errInvalidBody
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return errInvalidBody
	}
	return nil
}

func isArrayOrNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")))
}
