package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"veopm/internal/asset"
)

// UpsertAsset inserts or replaces a project asset, preserving its position
// when it already exists.
func (s *Store) UpsertAsset(ctx context.Context, slug string, a asset.ProjectAsset) error {
	imageJSON, err := marshalJSONColumn(a.Image)
	if err != nil {
		return fmt.Errorf("marshal asset image: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO assets (project_slug, id, position, name, description, type, image_json)
         VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM assets WHERE project_slug = ?), ?, ?, ?, ?)
         ON CONFLICT (project_slug, id) DO UPDATE
         SET name = excluded.name, description = excluded.description,
             type = excluded.type, image_json = excluded.image_json`,
		slug,
		a.ID,
		slug,
		a.Name,
		nullableString(a.Description),
		string(a.Type),
		imageJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

// GetAsset fetches one asset; returns nil when absent.
func (s *Store) GetAsset(ctx context.Context, slug, id string) (*asset.ProjectAsset, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, description, type, image_json FROM assets WHERE project_slug = ? AND id = ?`,
		slug, id,
	)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// ListAssets returns project assets in insertion order.
func (s *Store) ListAssets(ctx context.Context, slug string) ([]asset.ProjectAsset, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, description, type, image_json FROM assets WHERE project_slug = ? ORDER BY position`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []asset.ProjectAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// RemoveAsset deletes an asset by identifier.
func (s *Store) RemoveAsset(ctx context.Context, slug, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE project_slug = ? AND id = ?`, slug, id)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*asset.ProjectAsset, error) {
	var (
		id          string
		name        string
		description sql.NullString
		typeStr     string
		imageJSON   sql.NullString
	)
	if err := scanner.Scan(&id, &name, &description, &typeStr, &imageJSON); err != nil {
		return nil, err
	}
	a := &asset.ProjectAsset{
		ID:          id,
		Name:        name,
		Description: description.String,
		Type:        asset.Type(typeStr),
	}
	if imageJSON.Valid && imageJSON.String != "" {
		a.Image = &asset.IngredientImage{}
		if err := json.Unmarshal([]byte(imageJSON.String), a.Image); err != nil {
			return nil, fmt.Errorf("decode asset image: %w", err)
		}
	}
	return a, nil
}
