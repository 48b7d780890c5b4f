package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"veopm/internal/asset"
	"veopm/internal/shot"
)

// ToggleAsset flips an asset id in the shot's continuity selection set and
// persists the result. Approved shots reject the toggle.
func (s *Session) ToggleAsset(ctx context.Context, shotID, assetID string) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if err := sh.ToggleAsset(assetID); err != nil {
		return nil, err
	}
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// AddAdHocReference attaches a shot-local reference image. The image gets a
// generated id when it carries none so later removals can be traced.
func (s *Session) AddAdHocReference(ctx context.Context, shotID string, img asset.IngredientImage) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if err := sh.AddAdHocReference(img); err != nil {
		return nil, err
	}
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// RemoveAdHocReference removes a shot-local reference by positional index.
func (s *Session) RemoveAdHocReference(ctx context.Context, shotID string, index int) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if err := sh.RemoveAdHocReference(index); err != nil {
		return nil, err
	}
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// SetUseKeyframeAsReference selects whether the keyframe should seed video
// generation for the shot.
func (s *Session) SetUseKeyframeAsReference(ctx context.Context, shotID string, use bool) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	sh.UseKeyframeAsReference = use
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}
