package testfixtures

import (
	"context"
	"testing"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/scheduler"
)

func TestServiceFactoryNewAuthService(t *testing.T) {
	factory := NewServiceFactory()

	auth, err := factory.NewAuthService(AuthServiceDeps{})
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}

	session, err := auth.Authenticate(context.Background(), "user1", "1")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if session.Token != "token-1" {
		t.Fatalf("expected deterministic token token-1, got %q", session.Token)
	}
	if !session.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), session.CreatedAt)
	}
}

func TestServiceFactoryRejectsInvalidCredentials(t *testing.T) {
	factory := NewServiceFactory()

	if _, err := factory.NewAuthService(AuthServiceDeps{Credentials: []application.Credential{}}); err == nil {
		t.Fatalf("expected error for empty credential table")
	}
}

func TestServiceFactoryNewReservationService(t *testing.T) {
	factory := NewServiceFactory()
	svc := factory.NewReservationService(ReservationServiceDeps{})

	r := NewReservation(WithUsername("user2"), WithSlot(scheduler.Wednesday, 18))
	outcome := svc.Reserve(context.Background(), r.Username, string(r.Day), r.Hour)
	if !outcome.Success() {
		t.Fatalf("expected reservation to succeed, got %v", outcome)
	}
	if owner, _ := svc.OwnerOf(scheduler.Wednesday, 18); owner != "user2" {
		t.Fatalf("expected user2 to own WED 18")
	}
}
