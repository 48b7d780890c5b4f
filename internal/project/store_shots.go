package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"veopm/internal/shot"
)

// AddShot appends a shot to the end of the project's shot book.
func (s *Store) AddShot(ctx context.Context, slug string, sh *shot.Shot) error {
	if sh == nil {
		return errors.New("shot is nil")
	}
	now := time.Now().UTC()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	sh.UpdatedAt = now

	cols, err := shotColumnsValues(sh)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO shots (
            project_slug, id, position, kind, status, pitch, scene_name,
            veo_json, keyframe_prompt, keyframe_image_json,
            selected_asset_ids_json, adhoc_refs_json,
            video_status, video_url, reference_url,
            approved, use_keyframe_ref, error_message, created_at, updated_at
        ) VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM shots WHERE project_slug = ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{slug, sh.ID, slug}, cols...)...,
	)
	if err != nil {
		return fmt.Errorf("insert shot: %w", err)
	}
	return nil
}

// UpdateShot persists changes to an existing shot.
func (s *Store) UpdateShot(ctx context.Context, slug string, sh *shot.Shot) error {
	if sh == nil {
		return errors.New("shot is nil")
	}
	sh.UpdatedAt = time.Now().UTC()

	cols, err := shotColumnsValues(sh)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE shots
         SET kind = ?, status = ?, pitch = ?, scene_name = ?,
             veo_json = ?, keyframe_prompt = ?, keyframe_image_json = ?,
             selected_asset_ids_json = ?, adhoc_refs_json = ?,
             video_status = ?, video_url = ?, reference_url = ?,
             approved = ?, use_keyframe_ref = ?, error_message = ?, created_at = ?, updated_at = ?
         WHERE project_slug = ? AND id = ?`,
		append(cols, slug, sh.ID)...,
	)
	if err != nil {
		return fmt.Errorf("update shot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("shot %q not found in project %q", sh.ID, slug)
	}
	return nil
}

// GetShot fetches one shot; returns nil when absent.
func (s *Store) GetShot(ctx context.Context, slug, id string) (*shot.Shot, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+shotColumns+` FROM shots WHERE project_slug = ? AND id = ?`,
		slug, id,
	)
	sh, err := scanShot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shot: %w", err)
	}
	return sh, nil
}

// ListShots returns the shot book in insertion order.
func (s *Store) ListShots(ctx context.Context, slug string) ([]*shot.Shot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+shotColumns+` FROM shots WHERE project_slug = ? ORDER BY position`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("list shots: %w", err)
	}
	defer rows.Close()

	var shots []*shot.Shot
	for rows.Next() {
		sh, err := scanShot(rows)
		if err != nil {
			return nil, err
		}
		shots = append(shots, sh)
	}
	return shots, rows.Err()
}

// ShotStats returns a count of shots grouped by status.
func (s *Store) ShotStats(ctx context.Context, slug string) (map[shot.Status]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(1) FROM shots WHERE project_slug = ? GROUP BY status`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("shot stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[shot.Status]int)
	for rows.Next() {
		var status shot.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const shotColumns = "id, kind, status, pitch, scene_name, veo_json, keyframe_prompt, keyframe_image_json, selected_asset_ids_json, adhoc_refs_json, video_status, video_url, reference_url, approved, use_keyframe_ref, error_message, created_at, updated_at"

// shotColumnsValues returns bind values matching the non-key columns in
// insert/update order: kind .. updated_at.
func shotColumnsValues(sh *shot.Shot) ([]any, error) {
	veoJSON, err := marshalJSONColumn(sh.VeoJSON)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown document: %w", err)
	}
	keyframeJSON, err := marshalJSONColumn(sh.KeyframeImage)
	if err != nil {
		return nil, fmt.Errorf("marshal keyframe image: %w", err)
	}
	selectedJSON, err := marshalJSONColumn(sh.SelectedAssetIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal selected assets: %w", err)
	}
	adhocJSON, err := marshalJSONColumn(sh.AdHocReferences)
	if err != nil {
		return nil, fmt.Errorf("marshal ad-hoc references: %w", err)
	}

	return []any{
		string(sh.Kind),
		string(sh.Status),
		sh.Pitch,
		nullableString(sh.SceneName),
		veoJSON,
		nullableString(sh.KeyframePrompt),
		keyframeJSON,
		selectedJSON,
		adhocJSON,
		string(videoStatusOrIdle(sh.VideoStatus)),
		nullableString(sh.VideoURL),
		nullableString(sh.ReferenceURL),
		boolToInt(sh.Approved),
		boolToInt(sh.UseKeyframeAsReference),
		nullableString(sh.ErrorMessage),
		sh.CreatedAt.UTC().Format(time.RFC3339Nano),
		sh.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func videoStatusOrIdle(status shot.VideoStatus) shot.VideoStatus {
	if status == "" {
		return shot.VideoIdle
	}
	return status
}
