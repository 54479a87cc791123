package http

import (
	"context"
	"log/slog"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/protocol"
)

const (
	msgInternalError   = "Internal server error"
	msgMissingToken    = "Missing authentication token. Please login first."
	msgInvalidToken    = "Invalid or expired token. Please login again."
	msgMissingLogin    = "Missing username or password"
	msgBadCredentials  = "Invalid username or password"
	msgMissingDayQuery = "Missing 'day' query parameter"
	msgMissingDayParam = "Missing 'day' parameter"
	msgMissingDayHour  = "Missing 'day' or 'hour' in request body"
	msgBadHourFormat   = "Invalid hour format. Must be an integer (9-22)"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

// write builds an envelope response. Encoding failures degrade to a 500.
func (r responder) write(ctx context.Context, status int, message string, data any) *protocol.Response {
	resp, err := protocol.NewResponse(status, message, data)
	if err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "status", status, "error", err)
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}
	return resp
}

func (r responder) writeError(ctx context.Context, status int, message string) *protocol.Response {
	r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "message", message)
	return protocol.Error(status, message)
}

// writeOutcome maps a reservation rule result onto its status code.
func (r responder) writeOutcome(ctx context.Context, outcome application.Outcome, data any) *protocol.Response {
	status := outcomeStatus(outcome.Kind)
	if status != protocol.StatusOK {
		return r.writeError(ctx, status, outcome.Message)
	}
	return r.write(ctx, status, outcome.Message, data)
}

func outcomeStatus(kind application.OutcomeKind) int {
	switch kind {
	case application.OutcomeOK:
		return protocol.StatusOK
	case application.OutcomeInvalidDay, application.OutcomeInvalidHour:
		return protocol.StatusBadRequest
	case application.OutcomeDailyLimit:
		return protocol.StatusForbidden
	case application.OutcomeSlotTaken:
		return protocol.StatusConflict
	case application.OutcomeNoReservation:
		return protocol.StatusNotFound
	default:
		return protocol.StatusInternalServerError
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}
