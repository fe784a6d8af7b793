package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
)

func TestRepositories_BoundToHandle(t *testing.T) {
	m := NewPostgresRepositoryManager()

	if m.Users(nil) == nil {
		t.Fatalf("expected users repository")
	}
	if m.RefreshTokens(nil) == nil {
		t.Fatalf("expected refresh tokens repository")
	}
}

func TestRunMigrations_InvokesGoose(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	called := false
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		if dir != "." {
			t.Errorf("expected migrations at embedded FS root, got %q", dir)
		}
		return nil
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("goose.UpContext was not invoked")
	}
}

func TestRunMigrations_PropagatesError(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	want := errors.New("migration broke")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return want
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), nil); !errors.Is(err, want) {
		t.Fatalf("expected propagated error, got %v", err)
	}
}
