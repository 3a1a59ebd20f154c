package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/infra/logging"
	red "dating-swipe-subscription/internal/infra/redis"
	"dating-swipe-subscription/internal/usecase"
)

// RecordWatcher streams committed record changes for one user. Satisfied by
// the Redis record notifier.
type RecordWatcher interface {
	Watch(ctx context.Context, userID string) <-chan model.SubscriptionRecord
}

type Server struct {
	subUC      *usecase.SubscriptionUseCase
	planUC     *usecase.PlanUseCase
	paymentUC  *usecase.PaymentUseCase
	settingsUC *usecase.SettingsUseCase
	statsUC    *usecase.StatsUseCase

	auth      *AuthManager
	adminAuth *AuthManager
	limiter   *red.RateLimiter
	watcher   RecordWatcher

	rateLimit     int
	rateWindow    time.Duration
	webhookSecret string
	adminPassword string

	log *zerolog.Logger
}

func NewServer(
	subUC *usecase.SubscriptionUseCase,
	planUC *usecase.PlanUseCase,
	paymentUC *usecase.PaymentUseCase,
	settingsUC *usecase.SettingsUseCase,
	statsUC *usecase.StatsUseCase,
	auth *AuthManager,
	adminAuth *AuthManager,
	limiter *red.RateLimiter,
	watcher RecordWatcher,
	rateLimit int,
	rateWindow time.Duration,
	webhookSecret string,
	adminPassword string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		subUC:         subUC,
		planUC:        planUC,
		paymentUC:     paymentUC,
		settingsUC:    settingsUC,
		statsUC:       statsUC,
		auth:          auth,
		adminAuth:     adminAuth,
		limiter:       limiter,
		watcher:       watcher,
		rateLimit:     rateLimit,
		rateWindow:    rateWindow,
		webhookSecret: webhookSecret,
		adminPassword: adminPassword,
		log:           &l,
	}
}

// Router builds the public API: client routes behind user JWTs, plus
// unauthenticated provider callbacks (those authenticate by signature).
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/api/v1/plans", s.plansListHandler)

	r.Route("/api/v1/me", func(r chi.Router) {
		r.Use(s.userAuthMiddleware)
		r.Use(s.rateLimitMiddleware)

		r.Get("/subscription", s.summaryHandler)
		r.Get("/subscription/watch", s.watchSubscriptionHandler)
		r.Post("/subscription/cancel", s.cancelHandler)
		r.Post("/subscription/refresh", s.refreshHandler)
		r.Get("/swipes", s.canSwipeHandler)
		r.Post("/swipes", s.incrementSwipeHandler)
		r.Post("/checkout", s.checkoutHandler)
		r.Get("/transactions", s.transactionsHandler)
	})

	r.Post("/callbacks/payments/{provider}", s.paymentCallbackHandler)

	return r
}

// AdminRouter builds the admin surface, served on its own port.
func (s *Server) AdminRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/login", s.adminLoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.adminAuthMiddleware)

			r.Post("/logout", s.adminLogoutHandler)
			r.Get("/stats", s.adminStatsHandler)
			r.Get("/settings", s.adminSettingsGetHandler)
			r.Put("/settings", s.adminSettingsUpdateHandler)

			r.Get("/plans", s.adminPlansListHandler)
			r.Post("/plans", s.adminPlanCreateHandler)
			r.Get("/plans/{id}", s.adminPlanGetHandler)
			r.Put("/plans/{id}", s.adminPlanUpdateHandler)
			r.Delete("/plans/{id}", s.adminPlanDeactivateHandler)

			r.Get("/users/{id}/subscription", s.adminUserSubscriptionHandler)
			r.Get("/users/{id}/transactions", s.adminUserTransactionsHandler)
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ===== middleware =====

type ctxKey string

const userIDKey ctxKey = "user_id"

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// requestLogMiddleware traces every request with its id and elapsed time.
func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		l := logging.With(ctx, s.log)
		defer logging.TraceDuration(l, r.Method+" "+r.URL.Path)()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) userAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseUserFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := contextWithUserID(r.Context(), claims.Subject)
		ctx = logging.WithUserID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.adminAuth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if claims.Role != "admin" {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware bounds per-user request rates on the mutating client
// routes. Limiter failures let the request through; the quota itself is
// still enforced transactionally.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		userID := userIDFrom(r)
		key := red.UserRouteKey(userID, r.URL.Path)
		ok, err := s.limiter.Allow(r.Context(), key, s.rateLimit, s.rateWindow)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
