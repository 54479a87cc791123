package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/court-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic tokens and clocks.
type ServiceFactory struct {
	Clock  *Clock
	Tokens *TokenSequence
	Logger *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:  NewClock(time.Time{}),
		Tokens: NewTokenSequence("token"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Tokens == nil {
		factory.Tokens = NewTokenSequence("token")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithTokens overrides the token sequence used by the factory.
func WithTokens(tokens *TokenSequence) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Tokens = tokens
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials []application.Credential
	Sessions    application.SessionRepository
	Now         func() time.Time
}

// NewAuthService builds an auth service. Unset credentials default to
// user1..user10, and unset sessions use a store fed by the factory's tokens.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) (*application.AuthService, error) {
	creds := deps.Credentials
	if creds == nil {
		creds = application.DefaultCredentials()
	}
	directory, err := application.NewUserDirectory(creds)
	if err != nil {
		return nil, err
	}

	sessions := deps.Sessions
	if sessions == nil {
		sessions = application.NewSessionStore(f.Tokens.NextFunc())
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthServiceWithLogger(directory, sessions, now, f.Logger), nil
}

// ReservationServiceDeps captures dependencies for constructing a reservation service.
type ReservationServiceDeps struct {
	Store    application.SnapshotStore
	CacheTTL time.Duration
}

// NewReservationService builds a reservation service over an empty grid.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	return application.NewReservationServiceWithLogger(deps.Store, deps.CacheTTL, f.Logger)
}
