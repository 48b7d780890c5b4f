package vault_test

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"veopm/internal/logging"
	"veopm/internal/vault"
)

func registryDoc(t *testing.T, helper *clientWithFake) map[string]any {
	t.Helper()
	data, ok := helper.fake.Object("registry/world.json")
	if !ok {
		t.Fatal("registry not written")
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode registry: %v", err)
	}
	return doc
}

func registrySlugs(doc map[string]any) []string {
	var out []string
	for _, item := range doc["projects"].([]any) {
		out = append(out, item.(string))
	}
	sort.Strings(out)
	return out
}

func newSynchronizer(t *testing.T) (*vault.Synchronizer, *clientWithFake) {
	t.Helper()
	client, fake := newClient(t)
	sync := vault.NewSynchronizer(client, "registry/world.json", logging.NewNop())
	return sync, &clientWithFake{fake: fake}
}

func TestSyncSeedsAbsentRegistry(t *testing.T) {
	sync, helper := newSynchronizer(t)

	if err := sync.RecordProject(context.Background(), "demo"); err != nil {
		t.Fatalf("RecordProject: %v", err)
	}

	doc := registryDoc(t, helper)
	if got := registrySlugs(doc); !reflect.DeepEqual(got, []string{"demo"}) {
		t.Fatalf("projects = %v", got)
	}
	if doc["lastSyncedAt"] == "" {
		t.Fatal("sync timestamp missing")
	}
}

func TestSyncUnionsProjects(t *testing.T) {
	sync, helper := newSynchronizer(t)
	ctx := context.Background()

	helper.fake.SetObject("registry/world.json",
		[]byte(`{"projects": ["alpha", "beta"], "lastSyncedAt": "2026-01-01T00:00:00Z"}`),
		"application/json")

	if err := sync.RecordProject(ctx, "beta"); err != nil {
		t.Fatalf("RecordProject: %v", err)
	}
	if err := sync.RecordProject(ctx, "gamma"); err != nil {
		t.Fatalf("RecordProject: %v", err)
	}

	doc := registryDoc(t, helper)
	if got := registrySlugs(doc); !reflect.DeepEqual(got, []string{"alpha", "beta", "gamma"}) {
		t.Fatalf("projects = %v", got)
	}
}

func TestMergeDocumentsIdempotent(t *testing.T) {
	existing := map[string]any{"projects": []any{"alpha"}}
	update := map[string]any{"projects": []any{"beta"}, "lastSyncedAt": "2026-08-01T00:00:00Z"}

	once := vault.MergeDocuments(existing, update)
	twice := vault.MergeDocuments(once, update)

	if !reflect.DeepEqual(once["projects"], twice["projects"]) {
		t.Fatalf("merge not idempotent: %v vs %v", once["projects"], twice["projects"])
	}
}

func TestMergeDocumentsShallowLastWriterWins(t *testing.T) {
	existing := map[string]any{
		"projects":     []any{"alpha"},
		"lastSyncedAt": "2026-01-01T00:00:00Z",
		"note":         "keep me",
	}
	update := map[string]any{
		"projects":     []any{"alpha"},
		"lastSyncedAt": "2026-08-01T00:00:00Z",
	}

	merged := vault.MergeDocuments(existing, update)
	if merged["lastSyncedAt"] != "2026-08-01T00:00:00Z" {
		t.Fatalf("lastSyncedAt = %v", merged["lastSyncedAt"])
	}
	if merged["note"] != "keep me" {
		t.Fatalf("untouched field lost: %v", merged["note"])
	}
}
