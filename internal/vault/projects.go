package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"veopm/internal/asset"
	"veopm/internal/logging"
	"veopm/internal/project"
	"veopm/internal/services"
	"veopm/internal/slug"
)

const (
	projectsPrefix = "projects/"
	libraryPrefix  = "library/"
	// artifactVersion tags every stored library artifact document.
	artifactVersion = "1.0.0"
)

// Ops provides project-level vault operations on top of the object client.
type Ops struct {
	client  *Client
	logger  *slog.Logger
	fetcher *http.Client
}

// NewOps wires project operations to a vault client.
func NewOps(client *Client, logger *slog.Logger) *Ops {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ops{
		client:  client,
		logger:  logging.NewComponentLogger(logger, "vault"),
		fetcher: &http.Client{},
	}
}

// statePath returns the object path of a project's snapshot.
func statePath(projectSlug string) string {
	return projectsPrefix + projectSlug + "/state.json"
}

// SaveProjectState uploads the full project snapshot.
func (o *Ops) SaveProjectState(ctx context.Context, snap *project.Snapshot) (string, error) {
	if snap == nil || snap.Slug == "" {
		return "", services.Wrap(services.ErrValidation, "vault", "save state", "snapshot has no slug", nil)
	}
	publicURL, err := o.client.PutJSON(ctx, statePath(snap.Slug), snap)
	if err != nil {
		return "", err
	}
	o.logger.Info("project state saved",
		logging.String(logging.FieldProject, snap.Slug),
		logging.Int("shots", len(snap.Shots)))
	return publicURL, nil
}

// LoadProjectState downloads a project snapshot; an absent object fails
// with ErrProjectNotFound.
func (o *Ops) LoadProjectState(ctx context.Context, projectSlug string) (*project.Snapshot, error) {
	data, found, err := o.client.Get(ctx, statePath(projectSlug))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, services.Wrap(services.ErrProjectNotFound, "vault", "load state", projectSlug, nil)
	}

	var snap project.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, services.Wrap(services.ErrVaultTransport, "vault", "load state", "decode snapshot", err)
	}
	return &snap, nil
}

// ListProjects returns vault-known project slugs.
func (o *Ops) ListProjects(ctx context.Context) ([]string, error) {
	return o.client.List(ctx, projectsPrefix)
}

// ArtifactMetadata is the document stored alongside a library asset image.
type ArtifactMetadata struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	ImageURL    string `json:"imageUrl"`
}

// StoreLibraryAsset uploads an asset image plus its sibling artifact.json
// under a normalized library path and returns the metadata document.
func (o *Ops) StoreLibraryAsset(ctx context.Context, a asset.ProjectAsset) (*ArtifactMetadata, error) {
	if !a.HasImage() {
		return nil, services.Wrap(services.ErrValidation, "vault", "store asset", "asset has no image", nil)
	}

	base := fmt.Sprintf("%s%s/%s", libraryPrefix, a.Type, slug.Normalize(a.Name))
	imagePath := fmt.Sprintf("%s/image.%s", base, asset.ExtensionForMime(a.Image.MimeType))

	imageURL, err := o.client.PutBase64(ctx, imagePath, a.Image.Data, a.Image.MimeType)
	if err != nil {
		return nil, err
	}

	meta := &ArtifactMetadata{
		ID:          uuid.NewString(),
		Version:     artifactVersion,
		Name:        a.Name,
		Description: a.Description,
		Type:        string(a.Type),
		ImageURL:    imageURL,
	}
	if _, err := o.client.PutJSON(ctx, base+"/artifact.json", meta); err != nil {
		return nil, err
	}
	o.logger.Info("library asset stored", logging.String("path", base))
	return meta, nil
}

// RelayGeneratedVideo fetches a rendered clip from its temporary external
// URL and rehosts it in the vault, returning the durable vault URL.
func (o *Ops) RelayGeneratedVideo(ctx context.Context, remoteURL, projectSlug, unitID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "relay video", remoteURL, err)
	}
	resp, err := o.fetcher.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "relay video", remoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "relay video",
			fmt.Sprintf("fetch %s: status %d", remoteURL, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "relay video", "read clip", err)
	}

	path := fmt.Sprintf("%s%s/units/%s/clip.mp4", projectsPrefix, projectSlug, unitID)
	vaultURL, err := o.client.Put(ctx, path, data, "video/mp4")
	if err != nil {
		return "", err
	}
	o.logger.Info("video relayed",
		logging.String(logging.FieldProject, projectSlug),
		logging.String(logging.FieldShotID, unitID))
	return vaultURL, nil
}
