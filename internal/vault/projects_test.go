package vault_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veopm/internal/asset"
	"veopm/internal/logging"
	"veopm/internal/project"
	"veopm/internal/services"
	"veopm/internal/shot"
	"veopm/internal/vault"
)

func newOps(t *testing.T) (*vault.Ops, *clientWithFake) {
	t.Helper()
	client, fake := newClient(t)
	return vault.NewOps(client, logging.NewNop()), &clientWithFake{fake: fake}
}

type clientWithFake struct {
	fake interface {
		Object(string) ([]byte, bool)
		SetObject(string, []byte, string)
	}
}

func sampleSnapshot(slug string) *project.Snapshot {
	sh := shot.New("s1_01", "lighthouse")
	sh.Status = shot.StatusNeedsReview
	sh.SelectedAssetIDs = []string{"a1"}
	return &project.Snapshot{
		Slug:    slug,
		Title:   "Demo Project",
		Shots:   []shot.Shot{*sh},
		SavedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveThenLoadProjectState(t *testing.T) {
	ops, _ := newOps(t)
	ctx := context.Background()

	publicURL, err := ops.SaveProjectState(ctx, sampleSnapshot("demo"))
	if err != nil {
		t.Fatalf("SaveProjectState: %v", err)
	}
	if publicURL == "" {
		t.Fatal("no public url")
	}

	loaded, err := ops.LoadProjectState(ctx, "demo")
	if err != nil {
		t.Fatalf("LoadProjectState: %v", err)
	}
	if loaded.Title != "Demo Project" {
		t.Fatalf("title = %q", loaded.Title)
	}
	if len(loaded.Shots) != 1 || loaded.Shots[0].ID != "s1_01" || loaded.Shots[0].Status != shot.StatusNeedsReview {
		t.Fatalf("shots = %+v", loaded.Shots)
	}
	if len(loaded.Shots[0].SelectedAssetIDs) != 1 || loaded.Shots[0].SelectedAssetIDs[0] != "a1" {
		t.Fatalf("selected assets = %v", loaded.Shots[0].SelectedAssetIDs)
	}
}

func TestLoadProjectStateAbsent(t *testing.T) {
	ops, _ := newOps(t)

	_, err := ops.LoadProjectState(context.Background(), "missing")
	if !errors.Is(err, services.ErrProjectNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListProjects(t *testing.T) {
	ops, helper := newOps(t)
	ctx := context.Background()

	helper.fake.SetObject("projects/alpha/state.json", []byte("{}"), "application/json")
	helper.fake.SetObject("projects/beta/state.json", []byte("{}"), "application/json")

	names, err := ops.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("names = %v", names)
	}
}

func TestStoreLibraryAssetWritesImageAndArtifact(t *testing.T) {
	ops, helper := newOps(t)

	meta, err := ops.StoreLibraryAsset(context.Background(), asset.ProjectAsset{
		ID:          "a1",
		Name:        "Café Keeper",
		Description: "weathered lighthouse keeper",
		Type:        asset.TypeCharacter,
		Image:       &asset.IngredientImage{MimeType: "image/png", Data: "aGVsbG8="},
	})
	if err != nil {
		t.Fatalf("StoreLibraryAsset: %v", err)
	}
	if meta.ID == "" || meta.Version != "1.0.0" {
		t.Fatalf("metadata = %+v", meta)
	}

	image, ok := helper.fake.Object("library/character/cafe_keeper/image.png")
	if !ok || string(image) != "hello" {
		t.Fatalf("image object = %q found=%v", image, ok)
	}

	artifactData, ok := helper.fake.Object("library/character/cafe_keeper/artifact.json")
	if !ok {
		t.Fatal("artifact.json not written")
	}
	var artifact vault.ArtifactMetadata
	if err := json.Unmarshal(artifactData, &artifact); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if artifact.Name != "Café Keeper" || artifact.Type != "character" || artifact.ImageURL == "" {
		t.Fatalf("artifact = %+v", artifact)
	}
}

func TestStoreLibraryAssetRequiresImage(t *testing.T) {
	ops, _ := newOps(t)

	_, err := ops.StoreLibraryAsset(context.Background(), asset.ProjectAsset{
		Name: "No Image",
		Type: asset.TypeProp,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestRelayGeneratedVideo(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer remote.Close()

	ops, helper := newOps(t)

	vaultURL, err := ops.RelayGeneratedVideo(context.Background(), remote.URL, "demo", "s1_01")
	if err != nil {
		t.Fatalf("RelayGeneratedVideo: %v", err)
	}
	if vaultURL != "https://storage.googleapis.com/test-bucket/projects/demo/units/s1_01/clip.mp4" {
		t.Fatalf("vault url = %q", vaultURL)
	}

	data, ok := helper.fake.Object("projects/demo/units/s1_01/clip.mp4")
	if !ok || string(data) != "mp4-bytes" {
		t.Fatalf("clip = %q found=%v", data, ok)
	}
}

func TestRelayGeneratedVideoRemoteFailure(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer remote.Close()

	ops, _ := newOps(t)

	_, err := ops.RelayGeneratedVideo(context.Background(), remote.URL, "demo", "s1_01")
	if !errors.Is(err, services.ErrVaultTransport) {
		t.Fatalf("err = %v", err)
	}
}
