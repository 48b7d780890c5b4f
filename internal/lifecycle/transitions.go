package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"veopm/internal/asset"
	"veopm/internal/generate"
	"veopm/internal/logging"
	"veopm/internal/services"
	"veopm/internal/shot"
)

// RequestBreakdown drafts the structured production document for a shot.
// Valid while the shot is unapproved and not already generating; a failed
// attempt preserves any previously stored document.
func (s *Session) RequestBreakdown(ctx context.Context, shotID string) (*shot.Shot, error) {
	if err := s.acquireGate("breakdown"); err != nil {
		return nil, err
	}
	defer s.releaseGate()

	ctx, log := s.stageContext(ctx, "breakdown", shotID)
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if sh.Approved {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "breakdown", "shot is approved and locked", nil)
	}
	if sh.IsGenerating() {
		return nil, services.Wrap(services.ErrBusy, "lifecycle", "breakdown", "shot already generating", nil)
	}

	sh.Status = shot.StatusGeneratingJSON
	sh.ErrorMessage = ""
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}

	req := generate.BreakdownRequest{
		Pitch:     sh.Pitch,
		SceneName: sh.SceneName,
	}
	if assets, err := s.selectedAssets(ctx, sh); err == nil {
		req.Assets = assets
	}
	if sh.IsExtension() {
		req.Extension = true
		req.Previous = sh.VeoJSON
		req.Directive = directiveFor(sh)
	}

	result, genErr := s.gen.Breakdown(ctx, req)
	if genErr != nil {
		sh.SetFailed(genErr.Error())
		if saveErr := s.saveShot(ctx, sh); saveErr != nil {
			return nil, saveErr
		}
		log.Warn("breakdown failed", logging.Error(genErr))
		return sh, services.Wrap(services.ErrGenerationFailure, "lifecycle", "breakdown", "collaborator reported failure", genErr)
	}

	sh.VeoJSON = result.Document
	if sh.IsExtension() && sh.VeoJSON != nil && sh.VeoJSON.UnitType == "" {
		sh.VeoJSON.UnitType = shot.UnitTypeExtend
	}
	sh.Status = shot.StatusPendingKeyframePrompt
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, result.Usage)
	log.Info("breakdown complete")
	return sh, nil
}

// RequestKeyframePrompt writes the image prompt for a shot with a breakdown
// document.
func (s *Session) RequestKeyframePrompt(ctx context.Context, shotID string) (*shot.Shot, error) {
	if err := s.acquireGate("keyframe prompt"); err != nil {
		return nil, err
	}
	defer s.releaseGate()

	ctx, log := s.stageContext(ctx, "keyframe_prompt", shotID)
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if sh.Approved {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "keyframe prompt", "shot is approved and locked", nil)
	}
	if sh.IsGenerating() {
		return nil, services.Wrap(services.ErrBusy, "lifecycle", "keyframe prompt", "shot already generating", nil)
	}
	if sh.VeoJSON == nil {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "keyframe prompt", "shot has no breakdown document", nil)
	}

	sh.Status = shot.StatusGeneratingKeyframePrompt
	sh.ErrorMessage = ""
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}

	req := generate.PromptRequest{Document: sh.VeoJSON}
	if assets, err := s.selectedAssets(ctx, sh); err == nil {
		req.Assets = assets
	}

	result, genErr := s.gen.KeyframePrompt(ctx, req)
	if genErr != nil {
		sh.SetFailed(genErr.Error())
		if saveErr := s.saveShot(ctx, sh); saveErr != nil {
			return nil, saveErr
		}
		log.Warn("keyframe prompt failed", logging.Error(genErr))
		return sh, services.Wrap(services.ErrGenerationFailure, "lifecycle", "keyframe prompt", "collaborator reported failure", genErr)
	}

	sh.KeyframePrompt = result.Prompt
	sh.Status = shot.StatusNeedsKeyframe
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, result.Usage)
	return sh, nil
}

// RequestStill renders the keyframe image for a shot. Valid unless the shot
// is approved or already rendering; a failed attempt keeps an existing still.
func (s *Session) RequestStill(ctx context.Context, shotID string) (*shot.Shot, error) {
	if err := s.acquireGate("still"); err != nil {
		return nil, err
	}
	defer s.releaseGate()
	return s.generateStill(ctx, shotID)
}

// generateStill performs the still transition; callers hold the gate.
func (s *Session) generateStill(ctx context.Context, shotID string) (*shot.Shot, error) {
	ctx, log := s.stageContext(ctx, "still", shotID)
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if sh.Approved {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "still", "shot is approved and locked", nil)
	}
	if sh.Status == shot.StatusGeneratingImage {
		return nil, services.Wrap(services.ErrBusy, "lifecycle", "still", "still already rendering", nil)
	}
	if strings.TrimSpace(sh.KeyframePrompt) == "" {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "still", "shot has no keyframe prompt", nil)
	}

	sh.Status = shot.StatusGeneratingImage
	sh.ErrorMessage = ""
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}

	req := generate.StillRequest{Prompt: sh.KeyframePrompt}
	if assets, err := s.selectedAssets(ctx, sh); err == nil {
		for _, a := range assets {
			if a.Image != nil {
				req.References = append(req.References, *a.Image)
			}
		}
	}
	req.References = append(req.References, sh.AdHocReferences...)

	result, genErr := s.gen.Still(ctx, req)
	if genErr != nil {
		sh.SetFailed(genErr.Error())
		if saveErr := s.saveShot(ctx, sh); saveErr != nil {
			return nil, saveErr
		}
		log.Warn("still failed", logging.Error(genErr))
		return sh, services.Wrap(services.ErrGenerationFailure, "lifecycle", "still", "collaborator reported failure", genErr)
	}

	sh.KeyframeImage = result.Image
	sh.Status = shot.StatusNeedsReview
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	s.recordImageCall(ctx)
	return sh, nil
}

// GenerateAllStills renders keyframes for every shot awaiting one, holding
// the generation slot for the whole batch. A stop request halts scheduling
// after the current shot; failures are recorded per shot and do not halt
// the batch.
func (s *Session) GenerateAllStills(ctx context.Context) (int, error) {
	if err := s.acquireGate("all stills"); err != nil {
		return 0, err
	}
	defer s.releaseGate()

	ctx, log := s.stageContext(ctx, "stills", "")
	shots, err := s.store.ListShots(ctx, s.slug)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, sh := range shots {
		if s.stopped.Load() {
			log.Info("batch stills stopped", logging.Int("completed", completed))
			break
		}
		if sh.Approved || sh.Status != shot.StatusNeedsKeyframe {
			continue
		}
		if _, err := s.generateStill(ctx, sh.ID); err != nil {
			log.Warn("batch still failed",
				logging.String(logging.FieldShotID, sh.ID),
				logging.Error(err))
			continue
		}
		completed++
	}
	return completed, nil
}

// Approve locks a shot out of the editable pool. It requires a keyframe
// image unless the shot is an extension unit.
func (s *Session) Approve(ctx context.Context, shotID string) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if sh.Approved {
		return sh, nil
	}
	if !sh.CanApprove() {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "approve", "shot has no keyframe image", nil)
	}
	sh.Approved = true
	sh.Status = shot.StatusApproved
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Unapprove returns a shot to the editable pool without resetting any
// generated content.
func (s *Session) Unapprove(ctx context.Context, shotID string) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if !sh.Approved {
		return sh, nil
	}
	sh.Approved = false
	if sh.KeyframeImage != nil || sh.IsExtension() {
		sh.Status = shot.StatusNeedsReview
	}
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// RequestVideo submits an approved shot for motion rendering. Rejections
// for unapproved shots leave the video sub-state untouched; a render
// failure leaves the shot approved so the request can be reissued.
func (s *Session) RequestVideo(ctx context.Context, shotID string) (*shot.Shot, error) {
	if err := s.acquireGate("video"); err != nil {
		return nil, err
	}
	defer s.releaseGate()

	ctx, log := s.stageContext(ctx, "video", shotID)
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if !sh.Approved {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "video", "shot is not approved", nil)
	}
	if sh.VideoStatus == shot.VideoQueued || sh.VideoStatus == shot.VideoGenerating {
		return nil, services.Wrap(services.ErrBusy, "lifecycle", "video", "video already in flight", nil)
	}

	sh.VideoStatus = shot.VideoQueued
	sh.ErrorMessage = ""
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}

	req := generate.VideoRequest{Document: sh.VeoJSON, ReferenceURL: sh.ReferenceURL}
	if sh.UseKeyframeAsReference {
		req.Keyframe = sh.KeyframeImage
	}

	sh.VideoStatus = shot.VideoGenerating
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}

	result, genErr := s.gen.Video(ctx, req)
	if genErr != nil {
		sh.VideoStatus = shot.VideoFailed
		sh.ErrorMessage = genErr.Error()
		if saveErr := s.saveShot(ctx, sh); saveErr != nil {
			return nil, saveErr
		}
		log.Warn("video failed", logging.Error(genErr))
		return sh, services.Wrap(services.ErrGenerationFailure, "lifecycle", "video", "collaborator reported failure", genErr)
	}

	sh.VideoURL = result.VideoURL
	sh.VideoStatus = shot.VideoCompleted
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	log.Info("video complete")
	return sh, nil
}

// Extend appends a new extension unit continuing the original shot's video.
// The document is seeded from the original's continuity fields and the
// directive; extension units may approve without a keyframe.
func (s *Session) Extend(ctx context.Context, originID, directive string) (*shot.Shot, error) {
	ctx, log := s.stageContext(ctx, "extend", originID)
	origin, err := s.loadShot(ctx, originID)
	if err != nil {
		return nil, err
	}
	if origin.VeoJSON == nil {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "extend", "origin shot has no breakdown document", nil)
	}
	directive = strings.TrimSpace(directive)
	if directive == "" {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "extend", "directive required", nil)
	}

	extID, err := s.nextExtensionID(ctx, originID)
	if err != nil {
		return nil, err
	}

	ext := shot.New(extID, directive)
	ext.Kind = shot.KindExtension
	ext.SceneName = origin.SceneName
	ext.VeoJSON = shot.ExtensionDocument(origin.VeoJSON, directive)
	ext.Status = shot.StatusNeedsReview
	ext.ReferenceURL = origin.VideoURL
	ext.SelectedAssetIDs = append([]string(nil), origin.SelectedAssetIDs...)

	if err := s.store.AddShot(ctx, s.slug, ext); err != nil {
		return nil, err
	}
	log.Info("extension created", logging.String("extension", ext.ID))
	return ext, nil
}

// Retry returns a failed shot to the pending status implied by its stored
// artifacts, leaving the artifacts untouched.
func (s *Session) Retry(ctx context.Context, shotID string) (*shot.Shot, error) {
	sh, err := s.loadShot(ctx, shotID)
	if err != nil {
		return nil, err
	}
	if sh.Status != shot.StatusGenerationFailed {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "retry", "shot has not failed", nil)
	}

	switch {
	case sh.VeoJSON == nil:
		sh.Status = shot.StatusPendingJSON
	case strings.TrimSpace(sh.KeyframePrompt) == "":
		sh.Status = shot.StatusPendingKeyframePrompt
	case sh.KeyframeImage == nil:
		sh.Status = shot.StatusNeedsKeyframe
	default:
		sh.Status = shot.StatusNeedsReview
	}
	sh.ErrorMessage = ""
	if err := s.saveShot(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// selectedAssets resolves a shot's selected asset ids against the project
// library, skipping ids that no longer resolve.
func (s *Session) selectedAssets(ctx context.Context, sh *shot.Shot) ([]asset.ProjectAsset, error) {
	if len(sh.SelectedAssetIDs) == 0 {
		return nil, nil
	}
	var selected []asset.ProjectAsset
	for _, id := range sh.SelectedAssetIDs {
		a, err := s.store.GetAsset(ctx, s.slug, id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			selected = append(selected, *a)
		}
	}
	return selected, nil
}

// nextExtensionID derives a unique "<origin>_x<n>" identifier.
func (s *Session) nextExtensionID(ctx context.Context, originID string) (string, error) {
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_x%d", originID, n)
		existing, err := s.store.GetShot(ctx, s.slug, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}
}

func directiveFor(sh *shot.Shot) string {
	if sh.VeoJSON != nil && sh.VeoJSON.Shot.ExtensionDirective != "" {
		return sh.VeoJSON.Shot.ExtensionDirective
	}
	return sh.Pitch
}
