package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/broker"
)

type StreamHandler struct {
	broker *broker.Broker
	guard  *access.Guard
	logger *slog.Logger
}

func NewStreamHandler(b *broker.Broker, guard *access.Guard, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{broker: b, guard: guard, logger: logger}
}

// Serve handles GET /ws?household_id=N. Membership is checked before the
// upgrade so an unauthorized caller never holds a socket.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	householdID, err := strconv.ParseInt(r.URL.Query().Get("household_id"), 10, 64)
	if err != nil || householdID < 1 {
		writeError(w, h.logger, apperr.Validation("household_id query parameter is required"))
		return
	}
	if _, err := h.guard.Authorize(userID, householdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	connectionID := uuid.NewString()
	sub, err := h.broker.Subscribe(householdID, userID, connectionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
	})
	if err != nil {
		h.broker.Unsubscribe(householdID, connectionID)
		h.logger.Warn("websocket accept", "error", err)
		return
	}

	client := broker.NewClient(h.broker, sub, conn)
	client.Run(r.Context())
}
