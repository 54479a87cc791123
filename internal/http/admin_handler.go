package http

import (
	"context"
	"log/slog"

	"github.com/example/court-scheduler/internal/protocol"
)

type scheduleResetter interface {
	ResetAll(ctx context.Context) int
}

type sessionClearer interface {
	ClearSessions(ctx context.Context) int
}

// AdminHandler serves the unauthenticated maintenance endpoint.
type AdminHandler struct {
	schedule  scheduleResetter
	sessions  sessionClearer
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(schedule scheduleResetter, sessions sessionClearer, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{schedule: schedule, sessions: sessions, responder: newResponder(base), logger: base}
}

// Reset vacates the grid and then drops every session.
func (h *AdminHandler) Reset(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.schedule == nil || h.sessions == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	reservations := h.schedule.ResetAll(ctx)
	sessions := h.sessions.ClearSessions(ctx)
	handlerLogger(ctx, h.logger, "AdminHandler", "Reset").InfoContext(ctx, "server reset",
		"reservations_cleared", reservations,
		"sessions_cleared", sessions,
	)
	return h.responder.write(ctx, protocol.StatusOK, "Server reset: all reservations and sessions cleared", nil)
}
