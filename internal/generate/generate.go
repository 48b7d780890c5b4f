// Package generate defines the contract between the shot lifecycle and the
// generation backend. The lifecycle drives state transitions against this
// interface; the concrete client lives in services/gemini.
package generate

import (
	"context"

	"veopm/internal/asset"
	"veopm/internal/costs"
	"veopm/internal/shot"
)

// Generator describes the calls the lifecycle needs from a generation backend.
type Generator interface {
	// Breakdown turns a shot pitch into a structured production document.
	Breakdown(context.Context, BreakdownRequest) (*BreakdownResult, error)
	// KeyframePrompt writes an image prompt for an approved breakdown.
	KeyframePrompt(context.Context, PromptRequest) (*PromptResult, error)
	// Still renders the keyframe image for a shot.
	Still(context.Context, StillRequest) (*StillResult, error)
	// Video submits a motion render for an approved shot.
	Video(context.Context, VideoRequest) (*VideoResult, error)
}

// Usage reports token consumption for one completed text call.
type Usage struct {
	Tier         costs.Tier
	InputTokens  int64
	OutputTokens int64
}

// BreakdownRequest carries everything the backend needs to draft a shot
// document from its pitch.
type BreakdownRequest struct {
	Pitch     string
	SceneName string
	Assets    []asset.ProjectAsset
	Extension bool
	// Previous holds the originating document when Extension is set.
	Previous *shot.VeoShotWrapper
	// Directive is the user's instruction for what the extension should do.
	Directive string
}

// BreakdownResult is a completed shot document plus its token usage.
type BreakdownResult struct {
	Document *shot.VeoShotWrapper
	Usage    Usage
}

// PromptRequest asks for a keyframe image prompt derived from a breakdown.
type PromptRequest struct {
	Document *shot.VeoShotWrapper
	Assets   []asset.ProjectAsset
}

// PromptResult is the keyframe prompt text plus its token usage.
type PromptResult struct {
	Prompt string
	Usage  Usage
}

// StillRequest asks for a rendered keyframe image.
type StillRequest struct {
	Prompt string
	// References are the selected and ad-hoc images passed as ingredients.
	References []asset.IngredientImage
}

// StillResult carries the rendered image.
type StillResult struct {
	Image *asset.IngredientImage
}

// VideoRequest submits an approved shot for motion rendering.
type VideoRequest struct {
	Document *shot.VeoShotWrapper
	// Reference is the optional start frame or reference image URL.
	ReferenceURL string
	Keyframe     *asset.IngredientImage
}

// VideoResult carries the rendered clip location.
type VideoResult struct {
	VideoURL string
}
