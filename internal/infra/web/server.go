package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/logging"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/payment"
	"github.com/ImmigreatAI/Course-site-sub000/internal/usecase"
)

type Server struct {
	checkoutUC   usecase.CheckoutUseCase
	catalogUC    usecase.CatalogUseCase
	enrollmentUC usecase.EnrollmentUseCase

	auth          *AuthManager
	verifier      *payment.WebhookVerifier
	refreshSecret string
	originURL     string
	log           *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	catalogUC usecase.CatalogUseCase,
	enrollmentUC usecase.EnrollmentUseCase,
	auth *AuthManager,
	verifier *payment.WebhookVerifier,
	refreshSecret string,
	originURL string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC:    checkoutUC,
		catalogUC:     catalogUC,
		enrollmentUC:  enrollmentUC,
		auth:          auth,
		verifier:      verifier,
		refreshSecret: refreshSecret,
		originURL:     originURL,
		log:           logger,
	}
}

// Router assembles all HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", s.catalogListHandler)
		r.Get("/catalog/{productID}", s.catalogGetHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/checkout", s.checkoutHandler)
			r.Post("/cart/validate", s.cartValidateHandler)
			r.Get("/me/enrollments", s.myEnrollmentsHandler)
		})

		r.Post("/webhooks/stripe", s.stripeWebhookHandler)
		r.Post("/webhooks/catalog", s.catalogWebhookHandler)
	})

	return r
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := WithUser(r.Context(), usecase.UserInfo{
			ProviderID: claims.Subject,
			Email:      claims.Email,
			Name:       claims.Name,
		})
		ctx = logging.WithUserID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
