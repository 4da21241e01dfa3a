package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/logging"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/metrics"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/payment"
	"github.com/ImmigreatAI/Course-site-sub000/internal/usecase"
)

const maxWebhookBody = 1 << 20 // provider events are small; cap reads

type cartRequest struct {
	Items []model.CartLine `json:"items"`
}

type checkoutResponse struct {
	SessionID     *string  `json:"sessionId"`
	URL           string   `json:"url,omitempty"`
	IsFree        bool     `json:"isFree,omitempty"`
	EnrollmentIDs []string `json:"enrollmentIds,omitempty"`
}

type validateResponse struct {
	IsValid          bool                    `json:"isValid"`
	ConflictingItems []model.ConflictingLine `json:"conflictingItems,omitempty"`
	Message          string                  `json:"message,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) catalogListHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalogUC.GetAll(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Catalog temporarily unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Product `json:"data"`
	}{Data: products})
}

func (s *Server) catalogGetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	product, err := s.catalogUC.GetByProductID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, domain.ErrCatalogUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Catalog temporarily unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to load product")
		}
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	result, err := s.checkoutUC.Checkout(r.Context(), req.Items, user, s.originURL)
	if err != nil {
		s.writeCheckoutError(w, r, err)
		return
	}

	resp := checkoutResponse{
		IsFree:        result.IsFree,
		EnrollmentIDs: result.EnrollmentIDs,
		URL:           result.URL,
	}
	if result.SessionID != "" {
		resp.SessionID = &result.SessionID
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeCheckoutError maps domain and gateway failures onto the API error
// contract. Validation codes are surfaced verbatim; provider detail stays in
// the logs.
func (s *Server) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.With(r.Context(), s.log)

	if ve, ok := domain.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, struct {
			Error            string   `json:"error"`
			Code             string   `json:"code"`
			ConflictingItems []string `json:"conflictingItems,omitempty"`
		}{
			Error:            ve.Error(),
			Code:             string(ve.Code),
			ConflictingItems: ve.Conflicts,
		})
		return
	}

	var ge *adapter.GatewayError
	if errors.As(err, &ge) {
		log.Error().Str("kind", string(ge.Kind)).Str("code", ge.Code).Str("msg", ge.Msg).Msg("payment gateway error")
		switch ge.Kind {
		case adapter.ErrKindInvalidRequest:
			writeError(w, http.StatusBadRequest, "Payment request rejected")
		case adapter.ErrKindAuth:
			writeError(w, http.StatusUnauthorized, "Payment processor authentication failed")
		case adapter.ErrKindRateLimited:
			writeError(w, http.StatusTooManyRequests, "Payment processor is rate limiting requests")
		case adapter.ErrKindUnavailable:
			writeError(w, http.StatusServiceUnavailable, "Payment processor unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "Payment processor error")
		}
		return
	}

	if errors.Is(err, domain.ErrCatalogUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Catalog temporarily unavailable")
		return
	}

	log.Error().Err(err).Msg("checkout failed")
	writeError(w, http.StatusInternalServerError, "Checkout failed")
}

func (s *Server) cartValidateHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := s.checkoutUC.CheckCart(r.Context(), req.Items, user.ProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Catalog temporarily unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "Validation failed")
		return
	}

	resp := validateResponse{IsValid: !report.HasConflicts}
	if report.HasConflicts {
		resp.ConflictingItems = report.Lines
		resp.Message = "Some items in your cart are already owned"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) myEnrollmentsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	enrollments, err := s.enrollmentUC.ListByUser(r.Context(), user.ProviderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Enrollment `json:"data"`
	}{Data: enrollments})
}

// stripeWebhookHandler acknowledges everything it cannot act on with 200 so
// the provider stops redelivering; only a bad signature earns a 400 and only
// retryable local failures earn a 500.
func (s *Server) stripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	ev, err := s.verifier.ParseEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.IncWebhookEvent("unknown", "invalid_signature")
		s.log.Warn().Err(err).Msg("webhook signature verification failed")
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	ctx := logging.WithEventID(r.Context(), ev.ID)
	log := logging.With(ctx, s.log)

	switch ev.Type {
	case payment.EventCheckoutCompleted, payment.EventAsyncPaymentSucceeded:
		obj, err := payment.DecodeSession(ev)
		if err != nil {
			// Malformed beyond repair; redelivery cannot fix it.
			metrics.IncWebhookEvent(ev.Type, "invalid_payload")
			log.Error().Err(err).Msg("undecodable checkout session event")
			s.ackEvent(w, ev)
			return
		}
		if ev.Type == payment.EventCheckoutCompleted && obj.PaymentStatus == "unpaid" {
			// Delayed payment method; the async_payment_succeeded event will
			// carry the final word.
			metrics.IncWebhookEvent(ev.Type, "ignored")
			log.Info().Str("session_id", obj.ID).Msg("session completed but unpaid; awaiting async payment event")
			s.ackEvent(w, ev)
			return
		}
		s.processSession(w, r.WithContext(ctx), ev, obj)

	case payment.EventAsyncPaymentFailed, payment.EventSessionExpired:
		metrics.IncWebhookEvent(ev.Type, "ignored")
		log.Info().Str("event_type", ev.Type).Msg("terminal non-payment event acknowledged")
		s.ackEvent(w, ev)

	default:
		metrics.IncWebhookEvent(ev.Type, "ignored")
		s.ackEvent(w, ev)
	}
}

func (s *Server) processSession(w http.ResponseWriter, r *http.Request, ev *payment.WebhookEvent, obj *payment.CheckoutSessionObject) {
	ctx := logging.WithSessionID(r.Context(), obj.ID)
	log := logging.With(ctx, s.log)

	orderJSON, ok := obj.Metadata["order"]
	if !ok || orderJSON == "" {
		metrics.IncWebhookEvent(ev.Type, "invalid_payload")
		log.Error().Msg("checkout session missing order metadata; acknowledging to stop redelivery")
		s.ackEvent(w, ev)
		return
	}

	err := s.enrollmentUC.Process(ctx, usecase.SessionPayload{
		SessionID:       obj.ID,
		PaymentIntentID: obj.PaymentIntent,
		Amount:          obj.AmountTotal,
		Currency:        obj.Currency,
		OrderJSON:       orderJSON,
	})
	switch {
	case err == nil:
		metrics.IncWebhookEvent(ev.Type, "handled")
		s.ackEvent(w, ev)
	case errors.Is(err, usecase.ErrInvalidPayload):
		// Permanent: the order document will never parse, no matter how many
		// times the provider retries.
		metrics.IncWebhookEvent(ev.Type, "invalid_payload")
		log.Error().Err(err).Msg("session payload permanently invalid")
		s.ackEvent(w, ev)
	default:
		// Nothing external has happened yet; a retry is safe.
		metrics.IncWebhookEvent(ev.Type, "error")
		log.Error().Err(err).Msg("session processing failed; requesting redelivery")
		writeError(w, http.StatusInternalServerError, "Processing failed")
	}
}

func (s *Server) ackEvent(w http.ResponseWriter, ev *payment.WebhookEvent) {
	writeJSON(w, http.StatusOK, struct {
		Received  bool   `json:"received"`
		EventID   string `json:"eventId"`
		EventType string `json:"eventType"`
	}{Received: true, EventID: ev.ID, EventType: ev.Type})
}

type catalogWebhookRequest struct {
	ProductID string `json:"productId"`
}

// catalogWebhookHandler invalidates cached catalog state when the CMS reports
// a change. Guarded by a shared secret header, not JWT.
func (s *Server) catalogWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if s.refreshSecret == "" || r.Header.Get("X-Webhook-Secret") != s.refreshSecret {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req catalogWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.catalogUC.Invalidate(r.Context(), req.ProductID); err != nil {
		writeError(w, http.StatusInternalServerError, "Invalidation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"invalidated": true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
