package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/court-scheduler/internal/scheduler"
)

// SnapshotStore persists the full reservation grid.
type SnapshotStore interface {
	Load(ctx context.Context) (scheduler.Snapshot, error)
	Save(ctx context.Context, snapshot scheduler.Snapshot) error
}

// ReservationService enforces the booking rules over the single shared grid.
//
// Every public method holds mu for its whole duration. Mutations write the
// snapshot before releasing it, so the durable copy always matches the last
// completed mutation.
type ReservationService struct {
	mu     sync.Mutex
	grid   *scheduler.Grid
	store  SnapshotStore
	views  *viewCache
	logger *slog.Logger
}

// NewReservationService constructs a service over an empty grid. A nil store
// disables snapshots; a non-positive cacheTTL disables the view cache.
func NewReservationService(store SnapshotStore, cacheTTL time.Duration) *ReservationService {
	return NewReservationServiceWithLogger(store, cacheTTL, nil)
}

// NewReservationServiceWithLogger constructs a ReservationService with a specified logger.
func NewReservationServiceWithLogger(store SnapshotStore, cacheTTL time.Duration, logger *slog.Logger) *ReservationService {
	return &ReservationService{
		grid:   scheduler.NewGrid(),
		store:  store,
		views:  newViewCache(cacheTTL),
		logger: defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Restore replaces the grid with the stored snapshot. Load failures are
// logged and leave the grid vacant. It returns the number of restored slots.
func (s *ReservationService) Restore(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "Restore")
	if s.store == nil {
		return 0
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: load: %w", ErrSnapshot, err)
		logger.ErrorContext(ctx, "failed to restore schedule, starting empty", "error", err, "error_kind", ErrorKind(err))
		s.grid.Clear()
		return 0
	}

	skipped := s.grid.Restore(snap)
	s.views.invalidate()
	restored := s.grid.Occupied()
	logger.InfoContext(ctx, "schedule restored", "reservations", restored, "skipped", skipped)
	return restored
}

// IsVacant reports whether the slot exists and is unowned.
func (s *ReservationService) IsVacant(day scheduler.Day, hour int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.IsVacant(day, hour)
}

// OwnerOf returns the username holding the slot.
func (s *ReservationService) OwnerOf(day scheduler.Day, hour int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.grid.Owner(day, hour)
	return owner, owner != ""
}

// Reserve books a slot for username. The rule checks and the assignment run
// under one lock acquisition.
func (s *ReservationService) Reserve(ctx context.Context, username, dayValue string, hour int) (outcome Outcome) {
	day, validDay := scheduler.ParseDay(dayValue)
	logger := s.loggerWith(ctx, "Reserve", "username", username, "day", string(day), "hour", hour)
	defer func() {
		logger.InfoContext(ctx, "reservation evaluated", "outcome", outcome.Kind.String())
	}()

	if !validDay {
		return Outcome{
			Kind:    OutcomeInvalidDay,
			Message: fmt.Sprintf("Invalid day: %s. Must be MON, TUE, WED, THU, FRI, SAT, or SUN.", day),
		}
	}
	if !scheduler.ValidHour(hour) {
		return Outcome{
			Kind:    OutcomeInvalidHour,
			Message: fmt.Sprintf("Invalid hour: %d. Must be between 9 and 22 (09:00-23:00).", hour),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := scheduler.Reservation{Username: username, Day: day, Hour: hour}
	if conflict, found := scheduler.DetectConflict(s.grid, candidate); found {
		switch conflict.Type {
		case scheduler.ConflictTypeDailyLimit:
			return Outcome{
				Kind: OutcomeDailyLimit,
				Message: fmt.Sprintf("You already have a reservation on %s at %d:00. You can only make one reservation per day.",
					day, conflict.Hour),
			}
		default:
			return Outcome{
				Kind:    OutcomeSlotTaken,
				Message: fmt.Sprintf("Slot %s %s is already reserved by %s.", day, scheduler.FormatSpan(hour), conflict.Owner),
			}
		}
	}

	s.grid.Assign(day, hour, username)
	s.afterMutation(ctx, logger)
	return Outcome{
		Kind:    OutcomeOK,
		Message: fmt.Sprintf("Reservation successful: %s %s", day, scheduler.FormatSpan(hour)),
	}
}

// Cancel releases the slot username holds on day.
func (s *ReservationService) Cancel(ctx context.Context, username, dayValue string) (outcome Outcome) {
	day, validDay := scheduler.ParseDay(dayValue)
	logger := s.loggerWith(ctx, "Cancel", "username", username, "day", string(day))
	defer func() {
		logger.InfoContext(ctx, "cancellation evaluated", "outcome", outcome.Kind.String())
	}()

	if !validDay {
		return invalidDayOutcome(day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hour, owned := s.grid.OwnedOn(username, day)
	if !owned {
		return Outcome{
			Kind:    OutcomeNoReservation,
			Message: fmt.Sprintf("You have no reservation on %s.", day),
		}
	}

	s.grid.Vacate(day, hour)
	s.afterMutation(ctx, logger)
	return Outcome{
		Kind:    OutcomeOK,
		Message: fmt.Sprintf("Cancelled reservation: %s %s", day, scheduler.FormatSpan(hour)),
	}
}

// DayView returns the slots of one day ordered by hour.
func (s *ReservationService) DayView(ctx context.Context, dayValue string) ([]scheduler.Slot, Outcome) {
	day, validDay := scheduler.ParseDay(dayValue)
	if !validDay {
		return nil, invalidDayOutcome(day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slots, ok := s.views.day(day); ok {
		return slots, Outcome{Kind: OutcomeOK, Message: fmt.Sprintf("Schedule for %s retrieved", day)}
	}
	slots := s.grid.DaySlots(day)
	s.views.storeDay(day, slots)
	return slots, Outcome{Kind: OutcomeOK, Message: fmt.Sprintf("Schedule for %s retrieved", day)}
}

// WeekView returns every day's slots in week order.
func (s *ReservationService) WeekView(ctx context.Context) []scheduler.DaySchedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	if week, ok := s.views.week(); ok {
		return week
	}
	week := s.grid.Week()
	s.views.storeWeek(week)
	return week
}

// UserReservations lists the slots owned by username in week order.
func (s *ReservationService) UserReservations(ctx context.Context, username string) []scheduler.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Reservations(username)
}

// ResetAll vacates every slot and returns how many were cleared.
func (s *ReservationService) ResetAll(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "ResetAll")
	cleared := s.grid.Occupied()
	s.grid.Clear()
	s.afterMutation(ctx, logger)
	logger.InfoContext(ctx, "schedule reset", "cleared", cleared)
	return cleared
}

// afterMutation drops cached views and writes the snapshot. Callers hold mu.
// The write ignores cancellation of ctx so a mutation that completed is always
// persisted. Snapshot failures are logged and never undo the in-memory change.
func (s *ReservationService) afterMutation(ctx context.Context, logger *slog.Logger) {
	s.views.invalidate()
	if s.store == nil {
		return
	}
	if err := s.store.Save(context.WithoutCancel(ctx), s.grid.Snapshot()); err != nil {
		err = fmt.Errorf("%w: save: %w", ErrSnapshot, err)
		logger.ErrorContext(ctx, "failed to persist schedule", "error", err, "error_kind", ErrorKind(err))
	}
}

func invalidDayOutcome(day scheduler.Day) Outcome {
	return Outcome{
		Kind:    OutcomeInvalidDay,
		Message: fmt.Sprintf("Invalid day: %s", day),
	}
}
