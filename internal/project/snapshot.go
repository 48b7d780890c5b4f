package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veopm/internal/shot"
)

// Snapshot serializes a whole project for vault sync: the shot book in
// insertion order, assets, scene plans, and cost counters.
func (s *Store) Snapshot(ctx context.Context, slug string) (*Snapshot, error) {
	proj, err := s.GetProject(ctx, slug)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, fmt.Errorf("project %q not found", slug)
	}

	shots, err := s.ListShots(ctx, slug)
	if err != nil {
		return nil, err
	}
	assets, err := s.ListAssets(ctx, slug)
	if err != nil {
		return nil, err
	}

	book := make([]shot.Shot, 0, len(shots))
	for _, sh := range shots {
		book = append(book, *sh)
	}

	return &Snapshot{
		Slug:       proj.Slug,
		Title:      proj.Title,
		Shots:      book,
		Assets:     assets,
		ScenePlans: proj.ScenePlans,
		Costs:      proj.Costs,
		SavedAt:    time.Now().UTC(),
	}, nil
}

// Import replaces the local copy of a project with the supplied snapshot.
// The whole install happens in one transaction so a failed pull never
// leaves a half-written project behind.
func (s *Store) Import(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	if snap.Slug == "" {
		return errors.New("snapshot slug is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	plansJSON, err := marshalJSONColumn(snap.ScenePlans)
	if err != nil {
		return fmt.Errorf("marshal scene plans: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE slug = ?`, snap.Slug); err != nil {
		return fmt.Errorf("clear project: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO projects (
            slug, title, scene_plans_json,
            pro_calls, flash_calls, image_calls,
            pro_input_tokens, pro_output_tokens, flash_input_tokens, flash_output_tokens,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Slug,
		snap.Title,
		plansJSON,
		snap.Costs.ProCalls,
		snap.Costs.FlashCalls,
		snap.Costs.ImageCalls,
		snap.Costs.ProInputTokens,
		snap.Costs.ProOutputTokens,
		snap.Costs.FlashInputTokens,
		snap.Costs.FlashOutputTokens,
		now,
		now,
	); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	for position := range snap.Shots {
		sh := snap.Shots[position]
		if sh.CreatedAt.IsZero() {
			sh.CreatedAt = time.Now().UTC()
		}
		if sh.UpdatedAt.IsZero() {
			sh.UpdatedAt = sh.CreatedAt
		}
		cols, err := shotColumnsValues(&sh)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO shots (
                project_slug, id, position, kind, status, pitch, scene_name,
                veo_json, keyframe_prompt, keyframe_image_json,
                selected_asset_ids_json, adhoc_refs_json,
                video_status, video_url, reference_url,
                approved, use_keyframe_ref, error_message, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append([]any{snap.Slug, sh.ID, position}, cols...)...,
		); err != nil {
			return fmt.Errorf("insert shot %q: %w", sh.ID, err)
		}
	}

	for position, a := range snap.Assets {
		imageJSON, err := marshalJSONColumn(a.Image)
		if err != nil {
			return fmt.Errorf("marshal asset image: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO assets (project_slug, id, position, name, description, type, image_json)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.Slug,
			a.ID,
			position,
			a.Name,
			nullableString(a.Description),
			string(a.Type),
			imageJSON,
		); err != nil {
			return fmt.Errorf("insert asset %q: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}
