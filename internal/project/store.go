package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"veopm/internal/config"
	"veopm/internal/costs"
)

// Store manages project persistence backed by SQLite. One session lock per
// data directory keeps concurrent veopm invocations from interleaving
// writes to the same store.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the project database, acquires the session
// lock, and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "veopm.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another veopm session holds the project store")
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "projects.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close releases the database connection and the session lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var first error
	if s.db != nil {
		first = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CreateProject inserts a new empty project.
func (s *Store) CreateProject(ctx context.Context, slug, title string) (*Project, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO projects (slug, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		slug,
		title,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, slug)
}

// GetProject fetches a project by slug; returns nil when absent.
func (s *Store) GetProject(ctx context.Context, slug string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return proj, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, proj)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and its shots and assets.
func (s *Store) DeleteProject(ctx context.Context, slug string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE slug = ?`, slug)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetScenePlans replaces the stored scene plans for a project.
func (s *Store) SetScenePlans(ctx context.Context, slug string, plans []ScenePlan) error {
	encoded, err := marshalJSONColumn(plans)
	if err != nil {
		return fmt.Errorf("marshal scene plans: %w", err)
	}
	return s.touchProject(ctx, slug, `scene_plans_json = ?`, encoded)
}

// AddCosts accumulates completed-call counters onto the project row.
func (s *Store) AddCosts(ctx context.Context, slug string, delta costs.Summary) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects
         SET pro_calls = pro_calls + ?, flash_calls = flash_calls + ?, image_calls = image_calls + ?,
             pro_input_tokens = pro_input_tokens + ?, pro_output_tokens = pro_output_tokens + ?,
             flash_input_tokens = flash_input_tokens + ?, flash_output_tokens = flash_output_tokens + ?,
             updated_at = ?
         WHERE slug = ?`,
		delta.ProCalls,
		delta.FlashCalls,
		delta.ImageCalls,
		delta.ProInputTokens,
		delta.ProOutputTokens,
		delta.FlashInputTokens,
		delta.FlashOutputTokens,
		time.Now().UTC().Format(time.RFC3339Nano),
		slug,
	)
	if err != nil {
		return fmt.Errorf("add costs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %q not found", slug)
	}
	return nil
}

func (s *Store) touchProject(ctx context.Context, slug, setClause string, args ...any) error {
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano), slug)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects SET `+setClause+`, updated_at = ? WHERE slug = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %q not found", slug)
	}
	return nil
}

const projectColumns = "slug, title, scene_plans_json, pro_calls, flash_calls, image_calls, pro_input_tokens, pro_output_tokens, flash_input_tokens, flash_output_tokens, created_at, updated_at"
