package testsupport

import (
	"context"
	"testing"

	"veopm/internal/config"
	"veopm/internal/project"
	"veopm/internal/shot"
)

// MustOpenStore opens a project.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *project.Store {
	t.Helper()

	store, err := project.Open(cfg)
	if err != nil {
		t.Fatalf("project.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, store *project.Store, slug, title string) *project.Project {
	t.Helper()

	proj, err := store.CreateProject(context.Background(), slug, title)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return proj
}

// NewShot appends a fresh shot to the project and returns it.
func NewShot(t testing.TB, store *project.Store, slug, id, pitch string) *shot.Shot {
	t.Helper()

	sh := shot.New(id, pitch)
	if err := store.AddShot(context.Background(), slug, sh); err != nil {
		t.Fatalf("store.AddShot: %v", err)
	}
	return sh
}
