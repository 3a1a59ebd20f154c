package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	payAdapters "dating-swipe-subscription/internal/infra/adapters/payment"
	"dating-swipe-subscription/internal/infra/metrics"
)

func contextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ===== client handlers =====

func (s *Server) plansListHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	type planView struct {
		ID              string   `json:"id"`
		DisplayName     string   `json:"display_name"`
		Description     string   `json:"description"`
		PriceMinorUnits int64    `json:"price_minor_units"`
		Currency        string   `json:"currency"`
		DurationDays    int      `json:"duration_days"`
		SwipeLimit      int      `json:"swipe_limit"`
		Features        []string `json:"features"`
		Popular         bool     `json:"popular"`
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, planView{
			ID:              p.ID,
			DisplayName:     p.DisplayName,
			Description:     p.Description,
			PriceMinorUnits: p.PriceMinorUnits,
			Currency:        p.Currency,
			DurationDays:    p.DurationDays,
			SwipeLimit:      p.SwipeLimit,
			Features:        p.Features,
			Popular:         p.Popular,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []planView `json:"data"`
	}{Data: views})
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.subUC.GetSummary(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load subscription")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) canSwipeHandler(w http.ResponseWriter, r *http.Request) {
	allowed, err := s.subUC.CanSwipe(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check quota")
		return
	}
	metrics.IncQuotaCheck(allowed)
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (s *Server) incrementSwipeHandler(w http.ResponseWriter, r *http.Request) {
	used, err := s.subUC.IncrementSwipe(r.Context(), userIDFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuotaExceeded):
			metrics.IncSwipe("quota_exceeded")
			writeError(w, http.StatusTooManyRequests, "daily swipe quota exceeded")
		case errors.Is(err, domain.ErrRetryExhausted):
			metrics.IncSwipe("conflict")
			writeError(w, http.StatusServiceUnavailable, "busy, retry")
		default:
			metrics.IncSwipe("error")
			writeError(w, http.StatusInternalServerError, "failed to record swipe")
		}
		return
	}
	metrics.IncSwipe("ok")
	writeJSON(w, http.StatusOK, map[string]int{"swipes_used_today": used})
}

// watchSubscriptionHandler streams record changes for the authenticated user
// as server-sent events, so clients see a completed purchase without polling.
func (s *Server) watchSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		writeError(w, http.StatusNotImplemented, "live updates unavailable")
		return
	}
	fl, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	ch := s.watcher.Watch(r.Context(), userIDFrom(r))
	for {
		select {
		case <-r.Context().Done():
			return
		case rec, open := <-ch:
			if !open {
				return
			}
			view := struct {
				PlanID          string `json:"plan_id"`
				IsPremium       bool   `json:"is_premium"`
				IsActive        bool   `json:"is_active"`
				SwipesLimit     int    `json:"swipes_limit"`
				SwipesUsedToday int    `json:"swipes_used_today"`
			}{rec.CurrentPlanID, rec.IsPremium, rec.IsActive, rec.SwipesLimit, rec.SwipesUsedToday}
			b, err := json.Marshal(view)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			fl.Flush()
		}
	}
}

func (s *Server) cancelHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.subUC.Cancel(r.Context(), userIDFrom(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if _, err := s.subUC.Refresh(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to refresh")
		return
	}
	summary, err := s.subUC.GetSummary(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load subscription")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	t, sess, err := s.paymentUC.Initiate(r.Context(), userIDFrom(r), req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPlanNotFound):
			writeError(w, http.StatusNotFound, "plan not found")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "checkout failed")
		}
		return
	}
	metrics.IncPayment(t.Provider, "initiated")

	writeJSON(w, http.StatusCreated, struct {
		TransactionID string `json:"transaction_id"`
		OrderID       string `json:"order_id"`
		RedirectURL   string `json:"redirect_url"`
	}{TransactionID: t.ID, OrderID: sess.OrderID, RedirectURL: sess.RedirectURL})
}

func (s *Server) transactionsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.paymentUC.ListByUser(r.Context(), userIDFrom(r), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	type txView struct {
		ID               string `json:"id"`
		PlanID           string `json:"plan_id"`
		AmountMinorUnits int64  `json:"amount_minor_units"`
		Currency         string `json:"currency"`
		Provider         string `json:"provider"`
		Status           string `json:"status"`
		CreatedAt        string `json:"created_at"`
	}
	views := make([]txView, 0, len(list))
	for _, t := range list {
		views = append(views, txView{
			ID:               t.ID,
			PlanID:           t.PlanID,
			AmountMinorUnits: t.AmountMinorUnits,
			Currency:         t.Currency,
			Provider:         t.Provider,
			Status:           string(t.Status),
			CreatedAt:        t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []txView `json:"data"`
	}{Data: views})
}

// ===== provider callbacks =====

type callbackPayload struct {
	UserID        string `json:"user_id"`
	PlanID        string `json:"plan_id"`
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
}

// paymentCallbackHandler consumes provider confirmation callbacks. The body
// is authenticated by HMAC signature, then reduced to a ConfirmationEvent.
// Providers that only echo an order id are resolved against the pending
// transaction the checkout created.
func (s *Server) paymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if s.webhookSecret != "" {
		ok, err := payAdapters.VerifyWebhookSignature(body, r.Header.Get("X-Webhook-Signature"), s.webhookSecret)
		if err != nil || !ok {
			s.log.Warn().Str("provider", provider).Msg("rejected callback with bad signature")
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var p callbackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if p.Status == "failed" {
		metrics.IncPayment(provider, "failed")
		if p.OrderID != "" {
			if t, err := s.paymentUC.ResolveOrder(r.Context(), provider, p.OrderID); err == nil {
				_ = s.paymentUC.Fail(r.Context(), t.ID)
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"result": "failure recorded"})
		return
	}

	evt := adapter.ConfirmationEvent{
		UserID:        p.UserID,
		PlanID:        p.PlanID,
		TransactionID: p.TransactionID,
		Provider:      provider,
	}
	if evt.TransactionID == "" {
		evt.TransactionID = p.OrderID
	}
	if evt.UserID == "" || evt.PlanID == "" {
		t, err := s.paymentUC.ResolveOrder(r.Context(), provider, evt.TransactionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown order")
			return
		}
		evt.UserID = t.UserID
		evt.PlanID = t.PlanID
	}

	outcome, err := s.subUC.ApplyConfirmation(r.Context(), evt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPlanNotFound), errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			metrics.IncPaymentApply("error")
			writeError(w, http.StatusInternalServerError, "failed to apply payment")
		}
		return
	}

	metrics.IncPayment(provider, "completed")
	metrics.IncPaymentApply(string(outcome))
	writeJSON(w, http.StatusOK, map[string]string{"result": string(outcome)})
}
