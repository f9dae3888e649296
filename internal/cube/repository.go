package cube

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository defines the interface for cube persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a cube by its unique identifier.
	// Returns ErrCubeNotFound if the cube does not exist.
	GetByID(ctx context.Context, id string) (*Cube, error)

	// List retrieves all cubes ordered by location.
	List(ctx context.Context) ([]Cube, error)

	// ListByLocation retrieves the cubes at an exact location label.
	ListByLocation(ctx context.Context, location string) ([]Cube, error)

	// Create inserts a new cube.
	// Returns ErrCubeExists if a cube with the same ID already exists.
	Create(ctx context.Context, c *Cube) error

	// Update modifies an existing cube's location.
	// Returns ErrCubeNotFound if the cube does not exist.
	Update(ctx context.Context, c *Cube) error

	// Delete removes a cube by ID. Associated sensor readings are removed
	// by the database's cascade rule.
	// Returns ErrCubeNotFound if the cube does not exist.
	Delete(ctx context.Context, id string) error

	// Clear removes all cubes and returns the IDs that were removed, so
	// callers can tear down per-cube subscriptions.
	Clear(ctx context.Context) ([]string, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with foreign keys
// enabled (the sensor_data cascade depends on it).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a cube by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Cube, error) {
	var c Cube
	err := r.db.QueryRowContext(ctx,
		"SELECT id, location FROM cubes WHERE id = ?", id,
	).Scan(&c.ID, &c.Location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCubeNotFound
		}
		return nil, fmt.Errorf("querying cube by id: %w", err)
	}
	return &c, nil
}

// List retrieves all cubes ordered by location.
func (r *SQLiteRepository) List(ctx context.Context) ([]Cube, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, location FROM cubes ORDER BY location, id")
	if err != nil {
		return nil, fmt.Errorf("listing cubes: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	var cubes []Cube
	for rows.Next() {
		var c Cube
		if err := rows.Scan(&c.ID, &c.Location); err != nil {
			return nil, fmt.Errorf("scanning cube: %w", err)
		}
		cubes = append(cubes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cubes: %w", err)
	}
	return cubes, nil
}

// ListByLocation retrieves the cubes at an exact location label.
func (r *SQLiteRepository) ListByLocation(ctx context.Context, location string) ([]Cube, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, location FROM cubes WHERE location = ? ORDER BY id", location)
	if err != nil {
		return nil, fmt.Errorf("listing cubes by location: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	var cubes []Cube
	for rows.Next() {
		var c Cube
		if err := rows.Scan(&c.ID, &c.Location); err != nil {
			return nil, fmt.Errorf("scanning cube: %w", err)
		}
		cubes = append(cubes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cubes: %w", err)
	}
	return cubes, nil
}

// Create inserts a new cube.
func (r *SQLiteRepository) Create(ctx context.Context, c *Cube) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO cubes (id, location) VALUES (?, ?)", c.ID, c.Location)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrCubeExists
		}
		return fmt.Errorf("inserting cube: %w", err)
	}
	return nil
}

// Update modifies an existing cube's location.
func (r *SQLiteRepository) Update(ctx context.Context, c *Cube) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE cubes SET location = ? WHERE id = ?", c.Location, c.ID)
	if err != nil {
		return fmt.Errorf("updating cube: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrCubeNotFound
	}
	return nil
}

// Delete removes a cube by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cubes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting cube: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrCubeNotFound
	}
	return nil
}

// Clear removes all cubes and returns the removed IDs.
func (r *SQLiteRepository) Clear(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM cubes")
	if err != nil {
		return nil, fmt.Errorf("listing cube ids: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning cube id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cube ids: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM cubes"); err != nil {
		return nil, fmt.Errorf("clearing cubes: %w", err)
	}
	return ids, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
