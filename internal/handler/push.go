package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/push"
	"github.com/roomly/roomly/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	service *push.Service
	guard   *access.Guard
	logger  *slog.Logger
}

func NewPushHandler(subs *store.PushStore, svc *push.Service, guard *access.Guard, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, service: svc, guard: guard, logger: logger}
}

type subscribeRequest struct {
	HouseholdID int64  `json:"household_id"`
	Endpoint    string `json:"endpoint"`
	P256dh      string `json:"p256dh"`
	Auth        string `json:"auth"`
	DeviceName  string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe. Re-subscribing an existing
// endpoint refreshes its keys rather than duplicating the row.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, h.logger, apperr.Validation("endpoint, p256dh, and auth are required"))
		return
	}
	if _, err := h.guard.Authorize(userID, req.HouseholdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	sub, err := h.subs.Upsert(userID, req.HouseholdID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}. Only the
// owner may remove a subscription.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	sub, err := h.subs.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sub == nil || sub.UserID != userID {
		writeError(w, h.logger, apperr.NotFound("subscription not found"))
		return
	}

	if err := h.subs.Delete(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VAPIDKey handles GET /api/push/vapid-key, returning the public key a
// browser needs to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, h.logger, apperr.NotFound("push is not configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
