// Package handler exposes the JSON API. Handlers decode and answer;
// authorization and business rules live in the engines they call.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	rewards    *store.RewardStore
	activities *store.ActivityStore
	guard      *access.Guard
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, rs *store.RewardStore, as *store.ActivityStore, guard *access.Guard, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, rewards: rs, activities: as, guard: guard, logger: logger}
}

// newInviteCode returns a short shareable code. Collisions are caught by
// the unique constraint on households.invite_code.
func newInviteCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/households. The creator becomes the first
// admin member.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, apperr.Validation("name is required"))
		return
	}

	household, err := h.households.Create(req.Name, newInviteCode())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.households.AddMember(household.ID, userID, model.RoleAdmin); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, household)
}

// List handles GET /api/households, returning the households the caller
// belongs to.
func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	households, err := h.households.ListHouseholdsForUser(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

// Join handles POST /api/households/join. A returning member with a
// deactivated membership is reactivated instead of duplicated.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}
	req.InviteCode = strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if req.InviteCode == "" {
		writeError(w, h.logger, apperr.Validation("invite_code is required"))
		return
	}

	household, err := h.households.GetByInviteCode(req.InviteCode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if household == nil {
		writeError(w, h.logger, apperr.NotFound("invalid invite code"))
		return
	}

	existing, err := h.households.GetMember(household.ID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	switch {
	case existing != nil && existing.Active:
		writeError(w, h.logger, apperr.Conflict("already a member of this household"))
		return
	case existing != nil:
		if err := h.households.ReactivateMember(household.ID, userID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	default:
		if _, err := h.households.AddMember(household.ID, userID, model.RoleMember); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, household)
}

// Members handles GET /api/households/{id}/members.
func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
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

	members, err := h.households.ListMembers(householdID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []model.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}

// RemoveMember handles DELETE /api/households/{id}/members/{userID}.
// Admin only; the membership is deactivated, not deleted, so the ledger
// history stays attributable.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID := auth.UserID(r.Context())

	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}
	targetID, err := parsePathInt64(r, "userID")
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid user id"))
		return
	}

	if _, err := h.guard.AuthorizeAdmin(actorID, householdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	member, err := h.households.GetMember(householdID, targetID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if member == nil || !member.Active {
		writeError(w, h.logger, apperr.NotFound("member not found"))
		return
	}

	if err := h.households.DeactivateMember(householdID, targetID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leaderboard handles GET /api/households/{id}/leaderboard, ordered by
// balance descending.
func (h *HouseholdHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
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

	board, err := h.rewards.Leaderboard(householdID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if board == nil {
		board = []model.PointBalance{}
	}
	writeJSON(w, http.StatusOK, board)
}

// Activity handles GET /api/households/{id}/activity.
func (h *HouseholdHandler) Activity(w http.ResponseWriter, r *http.Request) {
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

	limit := parseLimitQuery(r, 50)
	activities, err := h.activities.ListByHousehold(householdID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}
