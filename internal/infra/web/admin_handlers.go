package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dating-swipe-subscription/internal/domain"
)

// A struct to define the expected JSON request body for creating a plan.
type planCreateRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	Description     string   `json:"description"`
	PriceMinorUnits int64    `json:"price_minor_units"`
	Currency        string   `json:"currency"`
	DurationDays    int      `json:"duration_days"`
	SwipeLimit      int      `json:"swipe_limit"`
	Features        []string `json:"features"`
	Popular         bool     `json:"popular"`
}

// adminLoginHandler exchanges the shared admin password for a session. The
// token lands in the session cookie and is also returned for bearer use.
func (s *Server) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	if s.adminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.adminPassword)) != 1 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, err := s.adminAuth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) adminLogoutHandler(w http.ResponseWriter, r *http.Request) {
	s.adminAuth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminStatsHandler(w http.ResponseWriter, r *http.Request) {
	totals, err := s.statsUC.Totals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get totals")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) adminSettingsGetHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsUC.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) adminSettingsUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FreeTierSwipeLimit  int    `json:"free_tier_swipe_limit"`
		SubscriptionEnabled bool   `json:"subscription_enabled"`
		ActiveProvider      string `json:"active_provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := s.settingsUC.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	current.FreeTierSwipeLimit = req.FreeTierSwipeLimit
	current.SubscriptionEnabled = req.SubscriptionEnabled
	current.ActiveProvider = req.ActiveProvider

	if err := s.settingsUC.Update(r.Context(), current); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) adminPlansListHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data interface{} `json:"data"`
	}{Data: plans})
}

func (s *Server) adminPlanGetHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) adminPlanCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := s.planUC.Create(r.Context(), req.ID, req.Name, req.DisplayName,
		req.PriceMinorUnits, req.Currency, req.DurationDays, req.SwipeLimit, req.Features)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}
	plan.Description = req.Description
	plan.Popular = req.Popular
	if req.Description != "" || req.Popular {
		if err := s.planUC.Update(r.Context(), plan); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create plan")
			return
		}
	}

	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) adminPlanUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	plan, err := s.planUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get plan")
		return
	}

	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan.Name = req.Name
	plan.DisplayName = req.DisplayName
	plan.Description = req.Description
	plan.PriceMinorUnits = req.PriceMinorUnits
	plan.Currency = req.Currency
	plan.DurationDays = req.DurationDays
	plan.SwipeLimit = req.SwipeLimit
	plan.Features = req.Features
	plan.Popular = req.Popular

	if err := s.planUC.Update(r.Context(), plan); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) adminPlanDeactivateHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminUserSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.subUC.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load subscription")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) adminUserTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.paymentUC.ListByUser(r.Context(), chi.URLParam(r, "id"), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data interface{} `json:"data"`
	}{Data: list})
}
