package http

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/protocol"
)

type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, error)
}

// RequireSession admits requests carrying a live bearer token and stores the
// resulting principal in the context.
func RequireSession(validator SessionValidator, logger *slog.Logger) Middleware {
	responder := newResponder(logger)

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *protocol.Request) *protocol.Response {
			if validator == nil {
				responder.loggerFor(ctx).ErrorContext(ctx, "session validator not configured")
				return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
			}

			token := req.BearerToken()
			if token == "" {
				return responder.writeError(ctx, protocol.StatusUnauthorized, msgMissingToken)
			}

			principal, err := validator.ValidateSession(ctx, token)
			if err != nil {
				if errors.Is(err, application.ErrUnauthorized) {
					return responder.writeError(ctx, protocol.StatusUnauthorized, msgInvalidToken)
				}
				responder.loggerFor(ctx).ErrorContext(ctx, "session validation failed", "error", err, "error_kind", application.ErrorKind(err))
				return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
			}

			ctx = ContextWithPrincipal(ctx, principal)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("username", principal.Username))
			}
			return next.Serve(ctx, req)
		})
	}
}

// RequestLogger numbers each request and logs its start and completion with
// the resulting status.
func RequestLogger(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *protocol.Request) *protocol.Response {
			id := counter.Add(1)
			logger := base
			if scoped := LoggerFromContext(ctx); scoped != nil {
				logger = scoped
			}
			logger = logger.With(
				"request_id", id,
				"method", req.Method,
				"path", req.Path,
			)

			ctx = ContextWithLogger(ctx, logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			resp := next.Serve(ctx, req)

			status := 0
			if resp != nil {
				status = resp.Status
			}
			logger.InfoContext(ctx, "request completed", "status", status, "duration", time.Since(start))
			return resp
		})
	}
}
