package sensordata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Store defines the interface for reading persistence.
type Store interface {
	// Append stores a reading for a registered cube, assigning the
	// timestamp server-side. Returns the stored reading.
	// Returns ErrUnknownCube if the cube is not registered.
	Append(ctx context.Context, cubeID string, value float64) (Reading, error)

	// Query returns readings matching the filter, oldest first.
	Query(ctx context.Context, f Filter) ([]Reading, error)

	// Clear removes all stored readings.
	Clear(ctx context.Context) error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	// now is the clock used for server-assigned timestamps.
	// Overridable in tests.
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-backed reading store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		now: time.Now,
	}
}

// Append stores a reading with a server-assigned timestamp.
func (s *SQLiteStore) Append(ctx context.Context, cubeID string, value float64) (Reading, error) {
	r := Reading{
		CubeID:    cubeID,
		Timestamp: s.now().Unix(),
		Value:     value,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sensor_data (cube_id, timestamp, value) VALUES (?, ?, ?)",
		r.CubeID, r.Timestamp, r.Value,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return Reading{}, fmt.Errorf("%w: %s", ErrUnknownCube, cubeID)
		}
		return Reading{}, fmt.Errorf("inserting reading: %w", err)
	}
	return r, nil
}

// Query returns readings matching the filter, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]Reading, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query := "SELECT cube_id, timestamp, value FROM sensor_data"
	var conds []string
	var args []any

	if f.CubeID != "" {
		conds = append(conds, "cube_id = ?")
		args = append(args, f.CubeID)
	}
	if f.Start != 0 {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Start)
	}
	if f.End != 0 {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.End)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.CubeID, &r.Timestamp, &r.Value); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// Clear removes all stored readings.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sensor_data"); err != nil {
		return fmt.Errorf("clearing readings: %w", err)
	}
	return nil
}

// isForeignKeyError checks if an error is a SQLite foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
