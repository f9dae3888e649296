package token

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	schema := `
		CREATE TABLE tokens (
			name TEXT PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			created INTEGER NOT NULL,
			ttl INTEGER NOT NULL DEFAULT 0
		);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return NewSQLiteRepository(db)
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey()
	if len(key) != 32 {
		t.Errorf("GenerateKey() length = %d, want 32", len(key))
	}
	for _, c := range key {
		if c == '-' {
			t.Error("GenerateKey() contains a dash")
		}
	}
	if key == GenerateKey() {
		t.Error("GenerateKey() returned the same key twice")
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tok := Token{Name: NameServer, Key: GenerateKey(), TTL: 0}
	if err := repo.Save(ctx, tok); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, NameServer)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Key != tok.Key {
		t.Errorf("key = %q, want %q", got.Key, tok.Key)
	}
	if got.Created == 0 {
		t.Error("Created was not assigned on save")
	}
}

func TestSaveReplacesByName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := Token{Name: NameApp, Key: GenerateKey()}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := Token{Name: NameApp, Key: GenerateKey()}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save() replace error = %v", err)
	}

	got, err := repo.Get(ctx, NameApp)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Key != second.Key {
		t.Errorf("key = %q, want replacement key %q", got.Key, second.Key)
	}
}

func TestSaveInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, Token{Name: "", Key: "k"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Save() error = %v, want ErrInvalidToken", err)
	}
	if err := repo.Save(ctx, Token{Name: "n", Key: ""}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Save() error = %v, want ErrInvalidToken", err)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), NameServer)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Get() error = %v, want ErrTokenNotFound", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	key := GenerateKey()
	if err := repo.Save(ctx, Token{Name: NameApp, Key: key}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Authenticate(ctx, key)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.Name != NameApp {
		t.Errorf("name = %q, want %q", got.Name, NameApp)
	}
}

func TestAuthenticateUnknownKey(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Authenticate(context.Background(), GenerateKey())
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Authenticate() error = %v, want ErrTokenNotFound", err)
	}
}

func TestAuthenticateEmptyKey(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Authenticate(context.Background(), "")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateExpired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	key := GenerateKey()
	tok := Token{Name: NameApp, Key: key, Created: created.Unix(), TTL: 3600}
	if err := repo.Save(ctx, tok); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Run("within ttl", func(t *testing.T) {
		repo.now = func() time.Time { return created.Add(30 * time.Minute) }
		if _, err := repo.Authenticate(ctx, key); err != nil {
			t.Errorf("Authenticate() error = %v, want nil", err)
		}
	})

	t.Run("past ttl", func(t *testing.T) {
		repo.now = func() time.Time { return created.Add(2 * time.Hour) }
		if _, err := repo.Authenticate(ctx, key); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("Authenticate() error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		forever := Token{Name: NameServer, Key: GenerateKey(), Created: created.Unix(), TTL: 0}
		if err := repo.Save(ctx, forever); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		repo.now = func() time.Time { return created.Add(10000 * time.Hour) }
		if _, err := repo.Authenticate(ctx, forever.Key); err != nil {
			t.Errorf("Authenticate() error = %v, want nil", err)
		}
	})
}

func TestDeleteAndClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, Token{Name: NameServer, Key: GenerateKey()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, Token{Name: NameApp, Key: GenerateKey()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := repo.Delete(ctx, NameServer); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, NameServer); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Delete() repeat error = %v, want ErrTokenNotFound", err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := repo.Get(ctx, NameApp); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Get() after Clear error = %v, want ErrTokenNotFound", err)
	}
}
