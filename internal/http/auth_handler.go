package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/protocol"
)

type authService interface {
	Authenticate(ctx context.Context, username, password string) (application.Session, error)
	RevokeSession(ctx context.Context, token string) bool
	SessionInfo(ctx context.Context, token string) (application.Session, error)
}

type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login exchanges a username and password for a session token.
func (h *AuthHandler) Login(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	fields, ok := decodeObject(req.Body)
	if !ok {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgMissingLogin)
	}
	rawUsername, hasUsername := fields["username"]
	rawPassword, hasPassword := fields["password"]
	if !hasUsername || !hasPassword {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgMissingLogin)
	}

	var username, password string
	if json.Unmarshal(rawUsername, &username) != nil || json.Unmarshal(rawPassword, &password) != nil {
		h.log(ctx, "Login", "error_kind", "invalid_credentials").WarnContext(ctx, "non-string credentials supplied")
		return h.responder.writeError(ctx, protocol.StatusUnauthorized, msgBadCredentials)
	}

	logger := h.log(ctx, "Login", "username", username)
	session, err := h.service.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			return h.responder.writeError(ctx, protocol.StatusUnauthorized, msgBadCredentials)
		}
		logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", application.ErrorKind(err))
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	return h.responder.write(ctx, protocol.StatusOK, fmt.Sprintf("Login successful. Welcome, %s!", session.Username), loginResponse{
		Token:    session.Token,
		Username: session.Username,
	})
}

// Logout revokes the caller's own token.
func (h *AuthHandler) Logout(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	principal, _ := PrincipalFromContext(ctx)
	revoked := h.service.RevokeSession(ctx, principal.Token)
	h.log(ctx, "Logout", "username", principal.Username).InfoContext(ctx, "session revoked", "revoked", revoked)
	return h.responder.write(ctx, protocol.StatusOK, "Logged out successfully", nil)
}

// Session reports the caller's login.
func (h *AuthHandler) Session(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	principal, _ := PrincipalFromContext(ctx)
	session, err := h.service.SessionInfo(ctx, principal.Token)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return h.responder.writeError(ctx, protocol.StatusUnauthorized, msgInvalidToken)
		}
		h.log(ctx, "Session").ErrorContext(ctx, "failed to load session", "error", err, "error_kind", application.ErrorKind(err))
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	return h.responder.write(ctx, protocol.StatusOK, "Session active", sessionResponse{
		Username:  session.Username,
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type sessionResponse struct {
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// decodeObject parses a JSON object body. Empty, invalid, or non-object bodies
// report false, as does an empty object.
func decodeObject(body []byte) (map[string]json.RawMessage, bool) {
	if len(body) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return nil, false
	}
	return fields, true
}
