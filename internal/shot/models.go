package shot

import (
	"strings"
	"time"

	"veopm/internal/asset"
	"veopm/internal/services"
)

// Status represents the generation lifecycle of a shot.
type Status string

const (
	StatusPendingJSON              Status = "PENDING_JSON"
	StatusGeneratingJSON           Status = "GENERATING_JSON"
	StatusPendingKeyframePrompt    Status = "PENDING_KEYFRAME_PROMPT"
	StatusGeneratingKeyframePrompt Status = "GENERATING_KEYFRAME_PROMPT"
	StatusNeedsKeyframe            Status = "NEEDS_KEYFRAME_GENERATION"
	StatusGeneratingImage          Status = "GENERATING_IMAGE"
	StatusNeedsReview              Status = "NEEDS_REVIEW"
	StatusApproved                 Status = "APPROVED"
	StatusGenerationFailed         Status = "GENERATION_FAILED"
)

// VideoStatus represents the independent video-generation sub-state.
type VideoStatus string

const (
	VideoIdle       VideoStatus = "IDLE"
	VideoQueued     VideoStatus = "QUEUED"
	VideoGenerating VideoStatus = "GENERATING"
	VideoCompleted  VideoStatus = "COMPLETED"
	VideoFailed     VideoStatus = "FAILED"
)

// Kind distinguishes independent shots from extension units that continue a
// preceding shot's video.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindExtension Kind = "extension"
)

var allStatuses = []Status{
	StatusPendingJSON,
	StatusGeneratingJSON,
	StatusPendingKeyframePrompt,
	StatusGeneratingKeyframePrompt,
	StatusNeedsKeyframe,
	StatusGeneratingImage,
	StatusNeedsReview,
	StatusApproved,
	StatusGenerationFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var generatingStatuses = map[Status]struct{}{
	StatusGeneratingJSON:           {},
	StatusGeneratingKeyframePrompt: {},
	StatusGeneratingImage:          {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsGeneratingStatus reports whether a status reflects an in-flight
// generation call.
func IsGeneratingStatus(status Status) bool {
	_, ok := generatingStatuses[status]
	return ok
}

// Shot is one production unit of the output sequence. The identifier encodes
// scene grouping as the token preceding the first underscore.
type Shot struct {
	ID                     string                  `json:"id"`
	Kind                   Kind                    `json:"kind"`
	Status                 Status                  `json:"status"`
	Pitch                  string                  `json:"pitch"`
	SceneName              string                  `json:"sceneName,omitempty"`
	VeoJSON                *VeoShotWrapper         `json:"veoJson,omitempty"`
	KeyframePrompt         string                  `json:"keyframePrompt,omitempty"`
	KeyframeImage          *asset.IngredientImage  `json:"keyframeImage,omitempty"`
	SelectedAssetIDs       []string                `json:"selectedAssetIds,omitempty"`
	AdHocReferences        []asset.IngredientImage `json:"adHocAssets,omitempty"`
	VideoStatus            VideoStatus             `json:"veoStatus,omitempty"`
	VideoURL               string                  `json:"veoVideoUrl,omitempty"`
	ReferenceURL           string                  `json:"referenceUrl,omitempty"`
	Approved               bool                    `json:"isApproved"`
	UseKeyframeAsReference bool                    `json:"useKeyframeAsReference"`
	ErrorMessage           string                  `json:"errorMessage,omitempty"`
	CreatedAt              time.Time               `json:"createdAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
}

// New returns a standard shot awaiting breakdown generation.
func New(id, pitch string) *Shot {
	now := time.Now().UTC()
	return &Shot{
		ID:          id,
		Kind:        KindStandard,
		Status:      StatusPendingJSON,
		Pitch:       pitch,
		VideoStatus: VideoIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsGenerating reports whether the shot has an in-flight generation call.
func (s Shot) IsGenerating() bool {
	return IsGeneratingStatus(s.Status)
}

// IsExtension reports whether the shot continues a preceding shot's video.
func (s Shot) IsExtension() bool {
	return s.Kind == KindExtension
}

// CanApprove reports whether the shot meets the approval preconditions:
// a keyframe image exists, or the shot is an extension unit (extensions
// inherit continuity and may lack their own still).
func (s Shot) CanApprove() bool {
	return s.KeyframeImage != nil || s.IsExtension()
}

// SetFailed marks the shot's lifecycle as failed. Previously stored
// artifacts (breakdown, keyframe, video URL) are never cleared here.
func (s *Shot) SetFailed(message string) {
	s.Status = StatusGenerationFailed
	s.ErrorMessage = message
}

// ToggleAsset adds the asset id to the selection set, or removes it when
// already present. Approved shots reject the toggle.
func (s *Shot) ToggleAsset(assetID string) error {
	if s.Approved {
		return services.Wrap(services.ErrValidation, "shot", "toggle asset", "shot is approved and locked", nil)
	}
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return services.Wrap(services.ErrValidation, "shot", "toggle asset", "asset id required", nil)
	}
	for i, existing := range s.SelectedAssetIDs {
		if existing == assetID {
			s.SelectedAssetIDs = append(s.SelectedAssetIDs[:i], s.SelectedAssetIDs[i+1:]...)
			return nil
		}
	}
	s.SelectedAssetIDs = append(s.SelectedAssetIDs, assetID)
	return nil
}

// HasAssetSelected reports whether the asset id is in the selection set.
func (s Shot) HasAssetSelected(assetID string) bool {
	for _, existing := range s.SelectedAssetIDs {
		if existing == assetID {
			return true
		}
	}
	return false
}

// AddAdHocReference appends a project-local reference image scoped to this
// shot. Approved shots reject the upload.
func (s *Shot) AddAdHocReference(img asset.IngredientImage) error {
	if s.Approved {
		return services.Wrap(services.ErrValidation, "shot", "add reference", "shot is approved and locked", nil)
	}
	s.AdHocReferences = append(s.AdHocReferences, img)
	return nil
}

// RemoveAdHocReference removes the reference at the given positional index.
// Indices of other shots are unaffected. Approved shots reject the removal.
func (s *Shot) RemoveAdHocReference(index int) error {
	if s.Approved {
		return services.Wrap(services.ErrValidation, "shot", "remove reference", "shot is approved and locked", nil)
	}
	if index < 0 || index >= len(s.AdHocReferences) {
		return services.Wrap(services.ErrValidation, "shot", "remove reference", "index out of range", nil)
	}
	s.AdHocReferences = append(s.AdHocReferences[:index], s.AdHocReferences[index+1:]...)
	return nil
}
