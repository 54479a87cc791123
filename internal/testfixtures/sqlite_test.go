package testfixtures

import (
	"context"
	"testing"

	"github.com/example/court-scheduler/internal/scheduler"
)

func TestReservationServiceRestoresFromSQLite(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(t)
	factory := NewServiceFactory()

	first := factory.NewReservationService(ReservationServiceDeps{Store: store})
	if outcome := first.Reserve(ctx, "user1", "tue", 11); !outcome.Success() {
		t.Fatalf("reserve failed: %s", outcome.Message)
	}

	second := factory.NewReservationService(ReservationServiceDeps{Store: store})
	if restored := second.Restore(ctx); restored != 1 {
		t.Fatalf("expected 1 restored reservation, got %d", restored)
	}
	if owner, _ := second.OwnerOf(scheduler.Tuesday, 11); owner != "user1" {
		t.Fatalf("expected user1 to own TUE 11 after restore, got %q", owner)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Snapshot(NewReservation(WithSlot(scheduler.Tuesday, 11)))
	if len(snap.Reservations) != 1 || snap.Reservations[0] != want.Reservations[0] {
		t.Fatalf("unexpected stored snapshot %#v", snap)
	}
}
