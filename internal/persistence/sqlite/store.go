// Package sqlite stores the reservation grid in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/example/court-scheduler/internal/persistence/migrations"
	"github.com/example/court-scheduler/internal/scheduler"
)

// Store keeps one row per owned slot in court_slots.
type Store struct {
	pool *ConnectionPool
}

// Open connects to the database described by config. Call Migrate before use.
func Open(config Config) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connections.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Migrate applies the embedded schema migrations and returns the schema version.
func (s *Store) Migrate(ctx context.Context) (int64, error) {
	version, err := migrations.Apply(ctx, goose.DialectSQLite3, s.pool.DB())
	if err != nil {
		return 0, fmt.Errorf("sqlite: %w", err)
	}
	return version, nil
}

// Load returns every owned slot in week order.
func (s *Store) Load(ctx context.Context) (scheduler.Snapshot, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT day, hour, username FROM court_slots`)
	if err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("sqlite: query slots: %w", err)
	}
	defer rows.Close()

	var snap scheduler.Snapshot
	for rows.Next() {
		var (
			day string
			r   scheduler.Reservation
		)
		if err := rows.Scan(&day, &r.Hour, &r.Username); err != nil {
			return scheduler.Snapshot{}, fmt.Errorf("sqlite: scan slot: %w", err)
		}
		r.Day = scheduler.Day(day)
		snap.Reservations = append(snap.Reservations, r)
	}
	if err := rows.Err(); err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("sqlite: iterate slots: %w", err)
	}

	scheduler.SortReservations(snap.Reservations)
	return snap, nil
}

// Save replaces the stored slots with snap in a single transaction.
func (s *Store) Save(ctx context.Context, snap scheduler.Snapshot) error {
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM court_slots`); err != nil {
			return fmt.Errorf("clear slots: %w", err)
		}
		if len(snap.Reservations) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO court_slots (day, hour, username) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range snap.Reservations {
			if _, err := stmt.ExecContext(ctx, string(r.Day), r.Hour, r.Username); err != nil {
				return fmt.Errorf("insert %s %d: %w", r.Day, r.Hour, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: save snapshot: %w", err)
	}
	return nil
}
