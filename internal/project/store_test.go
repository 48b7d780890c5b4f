package project_test

import (
	"context"
	"reflect"
	"testing"

	"veopm/internal/asset"
	"veopm/internal/costs"
	"veopm/internal/project"
	"veopm/internal/shot"
	"veopm/internal/testsupport"
)

func TestShotRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewProject(t, store, "demo", "Demo Project")
	ctx := context.Background()

	sh := shot.New("s1_01", "A lighthouse at dawn")
	sh.SceneName = "Opening"
	sh.Status = shot.StatusNeedsReview
	sh.VeoJSON = &shot.VeoShotWrapper{
		Shot: shot.VeoShot{Scene: "lighthouse exterior", DurationSeconds: 8},
	}
	sh.KeyframePrompt = "wide shot, golden hour"
	sh.KeyframeImage = &asset.IngredientImage{
		ID:       "kf-1",
		Name:     "keyframe",
		MimeType: "image/png",
		Data:     "aGVsbG8=",
	}
	sh.SelectedAssetIDs = []string{"asset-a", "asset-b"}
	sh.AdHocReferences = []asset.IngredientImage{
		{ID: "ref-1", Name: "moodboard", MimeType: "image/jpeg", Data: "d29ybGQ="},
	}
	sh.VideoStatus = shot.VideoQueued
	sh.UseKeyframeAsReference = true

	if err := store.AddShot(ctx, "demo", sh); err != nil {
		t.Fatalf("AddShot: %v", err)
	}

	loaded, err := store.GetShot(ctx, "demo", "s1_01")
	if err != nil {
		t.Fatalf("GetShot: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected shot, got nil")
	}
	if loaded.Status != shot.StatusNeedsReview {
		t.Fatalf("status = %s", loaded.Status)
	}
	if loaded.VeoJSON == nil || loaded.VeoJSON.Shot.Scene != "lighthouse exterior" {
		t.Fatalf("breakdown document not preserved: %+v", loaded.VeoJSON)
	}
	if loaded.KeyframeImage == nil || loaded.KeyframeImage.Data != "aGVsbG8=" {
		t.Fatalf("keyframe image not preserved: %+v", loaded.KeyframeImage)
	}
	if !reflect.DeepEqual(loaded.SelectedAssetIDs, []string{"asset-a", "asset-b"}) {
		t.Fatalf("selected assets = %v", loaded.SelectedAssetIDs)
	}
	if len(loaded.AdHocReferences) != 1 || loaded.AdHocReferences[0].ID != "ref-1" {
		t.Fatalf("ad-hoc references = %+v", loaded.AdHocReferences)
	}
	if loaded.VideoStatus != shot.VideoQueued {
		t.Fatalf("video status = %s", loaded.VideoStatus)
	}
	if !loaded.UseKeyframeAsReference {
		t.Fatal("use-keyframe flag lost")
	}
}

func TestListShotsPreservesOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewProject(t, store, "demo", "Demo Project")
	ctx := context.Background()

	ids := []string{"intro_01", "s1_01", "s1_02", "s2_01"}
	for _, id := range ids {
		testsupport.NewShot(t, store, "demo", id, "pitch for "+id)
	}

	shots, err := store.ListShots(ctx, "demo")
	if err != nil {
		t.Fatalf("ListShots: %v", err)
	}
	if len(shots) != len(ids) {
		t.Fatalf("got %d shots, want %d", len(shots), len(ids))
	}
	for i, sh := range shots {
		if sh.ID != ids[i] {
			t.Fatalf("position %d: got %s, want %s", i, sh.ID, ids[i])
		}
	}
}

func TestAddCostsAccumulates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewProject(t, store, "demo", "Demo Project")
	ctx := context.Background()

	first := costs.Summary{ProCalls: 1, ProInputTokens: 100, ProOutputTokens: 40}
	second := costs.Summary{FlashCalls: 2, FlashInputTokens: 30, FlashOutputTokens: 12, ImageCalls: 1}

	if err := store.AddCosts(ctx, "demo", first); err != nil {
		t.Fatalf("AddCosts: %v", err)
	}
	if err := store.AddCosts(ctx, "demo", second); err != nil {
		t.Fatalf("AddCosts: %v", err)
	}

	proj, err := store.GetProject(ctx, "demo")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if proj.Costs.ProCalls != 1 || proj.Costs.FlashCalls != 2 || proj.Costs.ImageCalls != 1 {
		t.Fatalf("call counters = %+v", proj.Costs)
	}
	if proj.Costs.ProInputTokens != 100 || proj.Costs.FlashOutputTokens != 12 {
		t.Fatalf("token counters = %+v", proj.Costs)
	}
}

func TestAddCostsUnknownProject(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	err := store.AddCosts(context.Background(), "missing", costs.Summary{ProCalls: 1})
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestUpsertAssetPreservesPosition(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewProject(t, store, "demo", "Demo Project")
	ctx := context.Background()

	a := asset.ProjectAsset{ID: "a1", Name: "Hero", Type: asset.TypeCharacter}
	b := asset.ProjectAsset{ID: "b1", Name: "Lighthouse", Type: asset.TypeLocation}
	for _, item := range []asset.ProjectAsset{a, b} {
		if err := store.UpsertAsset(ctx, "demo", item); err != nil {
			t.Fatalf("UpsertAsset: %v", err)
		}
	}

	a.Description = "updated"
	if err := store.UpsertAsset(ctx, "demo", a); err != nil {
		t.Fatalf("UpsertAsset update: %v", err)
	}

	assets, err := store.ListAssets(ctx, "demo")
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(assets))
	}
	if assets[0].ID != "a1" || assets[1].ID != "b1" {
		t.Fatalf("asset order = %s, %s", assets[0].ID, assets[1].ID)
	}
	if assets[0].Description != "updated" {
		t.Fatalf("description = %q", assets[0].Description)
	}
}

func TestSnapshotImportRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewProject(t, store, "demo", "Demo Project")
	ctx := context.Background()

	testsupport.NewShot(t, store, "demo", "s1_01", "first")
	testsupport.NewShot(t, store, "demo", "s1_02", "second")
	if err := store.UpsertAsset(ctx, "demo", asset.ProjectAsset{ID: "a1", Name: "Hero", Type: asset.TypeCharacter}); err != nil {
		t.Fatalf("UpsertAsset: %v", err)
	}
	if err := store.SetScenePlans(ctx, "demo", []project.ScenePlan{
		{Scene: "s1", Summary: "opening", ShotIDs: []string{"s1_01", "s1_02"}},
	}); err != nil {
		t.Fatalf("SetScenePlans: %v", err)
	}
	if err := store.AddCosts(ctx, "demo", costs.Summary{ProCalls: 3, ProInputTokens: 50}); err != nil {
		t.Fatalf("AddCosts: %v", err)
	}

	snap, err := store.Snapshot(ctx, "demo")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Shots) != 2 || len(snap.Assets) != 1 || len(snap.ScenePlans) != 1 {
		t.Fatalf("snapshot shape: %d shots, %d assets, %d plans", len(snap.Shots), len(snap.Assets), len(snap.ScenePlans))
	}

	if _, err := store.DeleteProject(ctx, "demo"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if err := store.Import(ctx, snap); err != nil {
		t.Fatalf("Import: %v", err)
	}

	restored, err := store.Snapshot(ctx, "demo")
	if err != nil {
		t.Fatalf("Snapshot after import: %v", err)
	}
	if restored.Title != "Demo Project" {
		t.Fatalf("title = %q", restored.Title)
	}
	if len(restored.Shots) != 2 || restored.Shots[0].ID != "s1_01" || restored.Shots[1].ID != "s1_02" {
		t.Fatalf("restored shots: %+v", restored.Shots)
	}
	if restored.Costs.ProCalls != 3 || restored.Costs.ProInputTokens != 50 {
		t.Fatalf("restored costs: %+v", restored.Costs)
	}
	if len(restored.Assets) != 1 || restored.Assets[0].Name != "Hero" {
		t.Fatalf("restored assets: %+v", restored.Assets)
	}
}

func TestSnapshotUnknownProject(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if _, err := store.Snapshot(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown project")
	}
}
