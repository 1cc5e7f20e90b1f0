package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("gootp"),
		tcpostgres.WithUsername("gootp"),
		tcpostgres.WithPassword("gootp"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Idempotent.
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	return pool
}

func TestDB_Users(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewDB(pool, instrument.NewNoop())

	if _, err := pool.Exec(ctx, `INSERT INTO users (id, email) VALUES (1, 'alice@example.com'), (2, 'gone@example.com')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE users SET deleted_at = NOW() WHERE id = 2`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	t.Run("get", func(t *testing.T) {
		u, err := repo.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail() error = %v", err)
		}
		if u.ID != 1 || u.EmailVerified {
			t.Fatalf("GetUserByEmail() = %+v", u)
		}

		for _, email := range []string{"nobody@example.com", "gone@example.com"} {
			if _, err := repo.GetUserByEmail(ctx, email); !errors.Is(err, goerror.ErrNotFound) {
				t.Fatalf("GetUserByEmail(%q) error = %v, want ErrNotFound", email, err)
			}
		}
	})

	t.Run("mark verified", func(t *testing.T) {
		if err := repo.MarkEmailVerified(ctx, 1); err != nil {
			t.Fatalf("MarkEmailVerified() error = %v", err)
		}
		u, err := repo.GetUserByEmail(ctx, "alice@example.com")
		if err != nil || !u.EmailVerified {
			t.Fatalf("after MarkEmailVerified user = %+v, err = %v", u, err)
		}
		if err := repo.MarkEmailVerified(ctx, 2); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("MarkEmailVerified(deleted) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update password hash", func(t *testing.T) {
		if err := repo.UpdatePasswordHash(ctx, 1, "$2a$hash"); err != nil {
			t.Fatalf("UpdatePasswordHash() error = %v", err)
		}

		var got string
		if err := pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = 1`).Scan(&got); err != nil {
			t.Fatalf("read back: %v", err)
		}
		if got != "$2a$hash" {
			t.Fatalf("password_hash = %q", got)
		}

		if err := repo.UpdatePasswordHash(ctx, 99, "x"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("UpdatePasswordHash(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestDB_MapError(t *testing.T) {
	t.Parallel()

	s := &DB{}
	if s.mapError(nil) != nil {
		t.Fatal("mapError(nil) != nil")
	}
	other := errors.New("boom")
	if !errors.Is(s.mapError(other), other) {
		t.Fatal("mapError() lost the original error")
	}
}
