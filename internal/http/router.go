package http

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/court-scheduler/internal/protocol"
)

// Handler answers one parsed request with one response.
type Handler interface {
	Serve(ctx context.Context, req *protocol.Request) *protocol.Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *protocol.Request) *protocol.Response

// Serve calls f.
func (f HandlerFunc) Serve(ctx context.Context, req *protocol.Request) *protocol.Response {
	return f(ctx, req)
}

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

type RouterConfig struct {
	Auth         *AuthHandler
	Admin        *AdminHandler
	Reservations *ReservationHandler
	Sessions     SessionValidator
	Middleware   []Middleware
	Logger       *slog.Logger
}

// NewRouter dispatches in fixed precedence: the public login and reset routes,
// then the bearer gate, then the authenticated routes, and finally 404.
func NewRouter(cfg RouterConfig) Handler {
	responder := newResponder(cfg.Logger)

	authenticated := HandlerFunc(func(ctx context.Context, req *protocol.Request) *protocol.Response {
		switch {
		case cfg.Reservations != nil && req.Method == "GET" && req.Path == "/schedule":
			return cfg.Reservations.Week(ctx, req)
		case cfg.Reservations != nil && req.Method == "GET" && req.Path == "/schedule/day":
			return cfg.Reservations.Day(ctx, req)
		case cfg.Reservations != nil && req.Method == "GET" && req.Path == "/reservations":
			return cfg.Reservations.List(ctx, req)
		case cfg.Reservations != nil && req.Method == "POST" && req.Path == "/reservations":
			return cfg.Reservations.Create(ctx, req)
		case cfg.Reservations != nil && req.Method == "DELETE" && strings.HasPrefix(req.Path, "/reservations"):
			return cfg.Reservations.Cancel(ctx, req)
		case cfg.Auth != nil && req.Method == "POST" && req.Path == "/logout":
			return cfg.Auth.Logout(ctx, req)
		case cfg.Auth != nil && req.Method == "GET" && req.Path == "/session":
			return cfg.Auth.Session(ctx, req)
		default:
			return responder.writeError(ctx, protocol.StatusNotFound, fmt.Sprintf("Endpoint not found: %s %s", req.Method, req.Path))
		}
	})

	gated := RequireSession(cfg.Sessions, cfg.Logger)(authenticated)

	var handler Handler = HandlerFunc(func(ctx context.Context, req *protocol.Request) *protocol.Response {
		switch {
		case cfg.Auth != nil && req.Method == "POST" && req.Path == "/login":
			return cfg.Auth.Login(ctx, req)
		case cfg.Admin != nil && req.Method == "POST" && req.Path == "/reset":
			return cfg.Admin.Reset(ctx, req)
		default:
			return gated.Serve(ctx, req)
		}
	})

	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
