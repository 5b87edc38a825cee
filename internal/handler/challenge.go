package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/engine"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/store"
)

type ChallengeHandler struct {
	engine     *engine.ChallengeEngine
	challenges *store.ChallengeStore
	guard      *access.Guard
	logger     *slog.Logger
}

func NewChallengeHandler(e *engine.ChallengeEngine, cs *store.ChallengeStore, guard *access.Guard, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{engine: e, challenges: cs, guard: guard, logger: logger}
}

type challengeRequest struct {
	Title          string     `json:"title"`
	PointReward    int        `json:"point_reward"`
	ParticipantCap *int       `json:"participant_cap"`
	DueDate        *time.Time `json:"due_date"`
}

// Create handles POST /api/households/{id}/challenges.
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}

	challenge, err := h.engine.Create(r.Context(), userID, engine.CreateChallengeInput{
		HouseholdID:    householdID,
		Title:          req.Title,
		PointReward:    req.PointReward,
		ParticipantCap: req.ParticipantCap,
		DueDate:        req.DueDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, challenge)
}

// List handles GET /api/households/{id}/challenges.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
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

	challenges, err := h.challenges.ListByHousehold(householdID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if challenges == nil {
		challenges = []model.Challenge{}
	}
	writeJSON(w, http.StatusOK, challenges)
}

// Join handles POST /api/challenges/{id}/join.
func (h *ChallengeHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	challengeID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	count, err := h.engine.Join(r.Context(), challengeID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"challenge_id":      challengeID,
		"participant_count": count,
	})
}

// Participants handles GET /api/challenges/{id}/participants.
func (h *ChallengeHandler) Participants(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	challengeID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	challenge, err := h.challenges.GetByID(challengeID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if challenge == nil {
		writeError(w, h.logger, apperr.NotFound("challenge %d not found", challengeID))
		return
	}
	if _, err := h.guard.Authorize(userID, challenge.HouseholdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	participants, err := h.challenges.ListParticipants(challengeID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if participants == nil {
		participants = []model.ChallengeParticipant{}
	}
	writeJSON(w, http.StatusOK, participants)
}

// AwardBonus handles POST /api/challenges/{id}/award.
func (h *ChallengeHandler) AwardBonus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	challengeID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	awarded, err := h.engine.AwardBonus(r.Context(), challengeID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"challenge_id": challengeID,
		"awarded":      awarded,
	})
}
