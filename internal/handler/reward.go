package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/engine"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/store"
)

type RewardHandler struct {
	engine  *engine.RedemptionEngine
	rewards *store.RewardStore
	guard   *access.Guard
	logger  *slog.Logger
}

func NewRewardHandler(e *engine.RedemptionEngine, rs *store.RewardStore, guard *access.Guard, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{engine: e, rewards: rs, guard: guard, logger: logger}
}

type rewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
	Available   *bool  `json:"available"`
}

// Create handles POST /api/households/{id}/rewards.
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	reward, err := h.engine.CreateReward(r.Context(), userID, engine.CreateRewardInput{
		HouseholdID: householdID,
		Title:       req.Title,
		Description: req.Description,
		PointCost:   req.PointCost,
		Available:   available,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

// List handles GET /api/households/{id}/rewards.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}
	if _, err := h.guard.Authorize(userID, householdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	rewards, err := h.rewards.ListByHousehold(householdID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// Update handles PUT /api/rewards/{id}.
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	rewardID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	reward, err := h.engine.UpdateReward(r.Context(), rewardID, userID, engine.CreateRewardInput{
		Title:       req.Title,
		Description: req.Description,
		PointCost:   req.PointCost,
		Available:   available,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

// Delete handles DELETE /api/rewards/{id}.
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	rewardID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	if err := h.engine.DeleteReward(r.Context(), rewardID, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Redeem handles POST /api/rewards/{id}/redeem.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	rewardID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	result, err := h.engine.Redeem(r.Context(), rewardID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
