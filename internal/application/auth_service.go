package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetCredential(ctx context.Context, username string) (Credential, error)
}

// SessionRepository captures the session table operations used by the auth service.
type SessionRepository interface {
	Create(username string, now time.Time) Session
	Lookup(token string) (Session, bool)
	Delete(token string) bool
	Clear() int
	Count() int
}

// AuthService coordinates login, token validation, logout, and global session resets.
type AuthService struct {
	credentials CredentialStore
	sessions    SessionRepository
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionRepository, now func() time.Time, logger *slog.Logger) *AuthService {
	if sessions == nil {
		sessions = NewSessionStore(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials: credentials,
		sessions:    sessions,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	username = strings.TrimSpace(username)
	logger := s.loggerWith(ctx, "Authenticate", "username", username)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded")
	}()

	if username == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var cred Credential
	cred, err = s.credentials.GetCredential(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if verr := verifyCredential(cred, password); verr != nil {
		if !errors.Is(verr, ErrInvalidCredentials) {
			logger.ErrorContext(ctx, "stored credential is unusable", "error", verr, "error_kind", ErrorKind(verr))
		}
		err = ErrInvalidCredentials
		return
	}

	session = s.sessions.Create(cred.Username, s.now())
	return
}

// ValidateSession resolves an active token to its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "session validated", "username", principal.Username)
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	session, ok := s.sessions.Lookup(trimmed)
	if !ok {
		err = ErrUnauthorized
		return
	}

	principal = Principal{Username: session.Username, Token: session.Token}
	return
}

// SessionInfo returns the session registered under token.
func (s *AuthService) SessionInfo(ctx context.Context, token string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("AuthService is nil")
	}
	session, ok := s.sessions.Lookup(strings.TrimSpace(token))
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

// RevokeSession invalidates a token. It is idempotent and reports whether a
// session existed.
func (s *AuthService) RevokeSession(ctx context.Context, token string) bool {
	if s == nil {
		return false
	}
	removed := s.sessions.Delete(strings.TrimSpace(token))
	s.loggerWith(ctx, "RevokeSession").InfoContext(ctx, "session revoke requested", "removed", removed)
	return removed
}

// ClearSessions drops every active session.
func (s *AuthService) ClearSessions(ctx context.Context) int {
	if s == nil {
		return 0
	}
	n := s.sessions.Clear()
	s.loggerWith(ctx, "ClearSessions").InfoContext(ctx, "sessions cleared", "count", n)
	return n
}

// ActiveSessions returns the number of live sessions.
func (s *AuthService) ActiveSessions() int {
	if s == nil {
		return 0
	}
	return s.sessions.Count()
}
