package vault

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"veopm/internal/logging"
	"veopm/internal/services"
)

// Synchronizer maintains the shared world registry document. The update is
// a read-merge-write cycle with no concurrency token: two synchronizers can
// race and the later write wins for non-list fields. Project slugs are
// merged as a set, so a lost write never drops a project that both sides
// carried.
type Synchronizer struct {
	client *Client
	object string
	logger *slog.Logger
	now    func() time.Time
}

// NewSynchronizer binds a registry synchronizer to an object path.
func NewSynchronizer(client *Client, object string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synchronizer{
		client: client,
		object: object,
		logger: logging.NewComponentLogger(logger, "registry"),
		now:    time.Now,
	}
}

// RecordProject registers a project slug in the world registry and stamps
// the sync time.
func (s *Synchronizer) RecordProject(ctx context.Context, projectSlug string) error {
	return s.Sync(ctx, map[string]any{
		"projects":     []any{projectSlug},
		"lastSyncedAt": s.now().UTC().Format(time.RFC3339),
	})
}

// Sync merges an update into the current registry document and writes the
// whole merged document back.
func (s *Synchronizer) Sync(ctx context.Context, update map[string]any) error {
	existing := map[string]any{"projects": []any{}}

	data, found, err := s.client.Get(ctx, s.object)
	if err != nil {
		return err
	}
	if found {
		if err := json.Unmarshal(data, &existing); err != nil {
			return services.Wrap(services.ErrVaultTransport, "registry", "sync", "decode registry", err)
		}
	}

	merged := MergeDocuments(existing, update)
	if _, err := s.client.PutJSON(ctx, s.object, merged); err != nil {
		return err
	}
	s.logger.Info("registry updated", logging.Int("projects", len(slugList(merged))))
	return nil
}

// MergeDocuments combines a registry update into the existing document:
// project slugs are unioned with set semantics, every other top-level field
// takes the update's value (shallow last-writer-wins).
func MergeDocuments(existing, update map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(update))
	for key, value := range existing {
		merged[key] = value
	}
	for key, value := range update {
		if key == "projects" {
			continue
		}
		merged[key] = value
	}

	seen := make(map[string]struct{})
	var union []string
	for _, name := range append(slugList(existing), slugList(update)...) {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		union = append(union, name)
	}
	if union == nil {
		union = []string{}
	}
	merged["projects"] = union
	return merged
}

// slugList extracts the project slugs from a registry document, tolerating
// both decoded-JSON ([]any) and native ([]string) forms.
func slugList(doc map[string]any) []string {
	var out []string
	switch list := doc["projects"].(type) {
	case []string:
		out = append(out, list...)
	case []any:
		for _, item := range list {
			if name, ok := item.(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}
