package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for token persistence.
type Repository interface {
	// Get retrieves a token by its well-known name.
	// Returns ErrTokenNotFound if no such token exists.
	Get(ctx context.Context, name string) (*Token, error)

	// Save inserts or replaces a token by name.
	Save(ctx context.Context, t Token) error

	// Authenticate looks up a token by key and checks its TTL.
	// Returns ErrTokenNotFound for unknown keys and ErrTokenExpired
	// when the TTL has elapsed.
	Authenticate(ctx context.Context, key string) (*Token, error)

	// Delete removes a token by name.
	// Returns ErrTokenNotFound if no such token exists.
	Delete(ctx context.Context, name string) error

	// Clear removes all tokens.
	Clear(ctx context.Context) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB

	// now is the clock used for TTL checks. Overridable in tests.
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed token repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		now: time.Now,
	}
}

// Get retrieves a token by name.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (*Token, error) {
	var t Token
	err := r.db.QueryRowContext(ctx,
		"SELECT name, key, created, ttl FROM tokens WHERE name = ?", name,
	).Scan(&t.Name, &t.Key, &t.Created, &t.TTL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("querying token by name: %w", err)
	}
	return &t, nil
}

// Save inserts or replaces a token by name.
func (r *SQLiteRepository) Save(ctx context.Context, t Token) error {
	if t.Name == "" || t.Key == "" {
		return fmt.Errorf("%w: name and key are required", ErrInvalidToken)
	}
	if t.Created == 0 {
		t.Created = r.now().Unix()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (name, key, created, ttl) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET key = excluded.key,
		 created = excluded.created, ttl = excluded.ttl`,
		t.Name, t.Key, t.Created, t.TTL,
	)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Authenticate looks up a token by key and checks its TTL.
func (r *SQLiteRepository) Authenticate(ctx context.Context, key string) (*Token, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidToken)
	}

	var t Token
	err := r.db.QueryRowContext(ctx,
		"SELECT name, key, created, ttl FROM tokens WHERE key = ?", key,
	).Scan(&t.Name, &t.Key, &t.Created, &t.TTL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("querying token by key: %w", err)
	}

	if t.Expired(r.now()) {
		return nil, ErrTokenExpired
	}
	return &t, nil
}

// Delete removes a token by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// Clear removes all tokens.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tokens"); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}
