package http

import (
	"log/slog"
	"net/http"

	"github.com/jinsharnammedia/commerce/pkg/httputil"
	"github.com/jinsharnammedia/commerce/pkg/middleware"
	"github.com/jinsharnammedia/commerce/pkg/validator"

	"github.com/jinsharnammedia/commerce/internal/domain"
	"github.com/jinsharnammedia/commerce/internal/service"
)

// CheckoutHandler handles HTTP requests for the checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// sessionFromRequest converts the gateway session into the service-layer
// identity. RequireSession guarantees the session is present on these routes.
func sessionFromRequest(r *http.Request) domain.Session {
	sess, _ := middleware.SessionFromContext(r.Context())
	return domain.Session{
		UserID:  sess.UserID.String(),
		IsAdmin: sess.IsAdmin,
	}
}

// CreateOrder handles POST /api/v1/checkout/create-order. It prices the cart
// server-side and registers a payment intent at the gateway. Unknown body
// fields, including any client-proposed amount, fail the decode.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CreateIntentInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), sessionFromRequest(r), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: intent})
}

// VerifyPayment handles POST /api/v1/checkout/verify-payment. A valid
// signature persists the paid order; anything else is rejected without
// detail about which field failed.
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.VerifyPaymentInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.VerifyAndCreateOrder(r.Context(), sessionFromRequest(r), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}
