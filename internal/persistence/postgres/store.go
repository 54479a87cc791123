// Package postgres stores the reservation grid in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/example/court-scheduler/internal/persistence/migrations"
	"github.com/example/court-scheduler/internal/scheduler"
)

// Store keeps one row per owned slot in court_slots.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pool to dsn and verifies it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate applies the embedded schema migrations and returns the schema version.
func (s *Store) Migrate(ctx context.Context) (int64, error) {
	// goose works on *sql.DB; the wrapper shares the pool and does not own it.
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	version, err := migrations.Apply(ctx, goose.DialectPostgres, db)
	if err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}
	return version, nil
}

// Load returns every owned slot in week order.
func (s *Store) Load(ctx context.Context) (scheduler.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `SELECT day, hour, username FROM court_slots`)
	if err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("postgres: query slots: %w", err)
	}

	reservations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (scheduler.Reservation, error) {
		var (
			day string
			r   scheduler.Reservation
		)
		err := row.Scan(&day, &r.Hour, &r.Username)
		r.Day = scheduler.Day(day)
		return r, err
	})
	if err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("postgres: collect slots: %w", err)
	}

	scheduler.SortReservations(reservations)
	return scheduler.Snapshot{Reservations: reservations}, nil
}

// Save replaces the stored slots with snap in a single transaction.
func (s *Store) Save(ctx context.Context, snap scheduler.Snapshot) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM court_slots`); err != nil {
			return fmt.Errorf("clear slots: %w", err)
		}
		if len(snap.Reservations) == 0 {
			return nil
		}

		rows := make([][]any, 0, len(snap.Reservations))
		for _, r := range snap.Reservations {
			rows = append(rows, []any{string(r.Day), int16(r.Hour), r.Username})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"court_slots"}, []string{"day", "hour", "username"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: save snapshot: %w", err)
	}
	return nil
}
