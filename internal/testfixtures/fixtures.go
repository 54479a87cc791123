package testfixtures

import (
	"fmt"
	"time"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/scheduler"
)

// referenceTime is a Monday morning so a fresh clock sits at the start of a week.
var referenceTime = time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Credentials returns n plaintext credentials named user1..userN with
// passwords "1".."N".
func Credentials(n int) []application.Credential {
	creds := make([]application.Credential, 0, n)
	for i := 1; i <= n; i++ {
		creds = append(creds, application.Credential{
			Username: fmt.Sprintf("user%d", i),
			Password: fmt.Sprintf("%d", i),
		})
	}
	return creds
}

// ReservationOption configures a generated reservation.
type ReservationOption func(*scheduler.Reservation)

// NewReservation returns user1's Monday 09:00 booking with optional overrides.
func NewReservation(opts ...ReservationOption) scheduler.Reservation {
	r := scheduler.Reservation{Username: "user1", Day: scheduler.Monday, Hour: scheduler.FirstHour}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithUsername overrides the reservation owner.
func WithUsername(username string) ReservationOption {
	return func(r *scheduler.Reservation) {
		r.Username = username
	}
}

// WithSlot overrides the reservation day and hour.
func WithSlot(day scheduler.Day, hour int) ReservationOption {
	return func(r *scheduler.Reservation) {
		r.Day = day
		r.Hour = hour
	}
}

// Snapshot builds a snapshot from the supplied reservations.
func Snapshot(reservations ...scheduler.Reservation) scheduler.Snapshot {
	return scheduler.Snapshot{Reservations: reservations}
}
