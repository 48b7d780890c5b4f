package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"veopm/internal/asset"
	"veopm/internal/costs"
	"veopm/internal/generate"
	"veopm/internal/services"
	"veopm/internal/shot"
)

var _ generate.Generator = (*Client)(nil)

const breakdownInstruction = `Turn the shot pitch into a production-ready breakdown document.
Respond with a single JSON object shaped as {"shot": {"scene", "duration_seconds", "character_description", "camera", "audio", "flags": {"continuity_locked", "prohibited_content", "conflicts", "warnings"}}}.
Keep character and location descriptions consistent with the attached continuity references.`

const promptInstruction = `Write one image-generation prompt for the keyframe of this shot.
Describe a single still frame: composition, lighting, subject, mood.
Respond with the prompt text only.`

// Breakdown drafts the structured document for a shot on the pro tier.
func (c *Client) Breakdown(ctx context.Context, req generate.BreakdownRequest) (*generate.BreakdownResult, error) {
	parts := []part{{Text: breakdownInstruction}}
	if req.Extension {
		parts = append(parts, part{Text: extensionContext(req)})
	}
	parts = append(parts, part{Text: "Pitch: " + req.Pitch})
	if req.SceneName != "" {
		parts = append(parts, part{Text: "Scene: " + req.SceneName})
	}
	parts = append(parts, assetParts(req.Assets)...)

	resp, err := c.generateContent(ctx, c.cfg.ProModel, generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, err
	}

	text, ok := firstText(resp)
	if !ok {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "breakdown", "response carried no document", nil)
	}
	var doc shot.VeoShotWrapper
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err != nil {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "breakdown", "response is not a breakdown document", err)
	}
	if req.Extension {
		doc.UnitType = shot.UnitTypeExtend
	}

	return &generate.BreakdownResult{
		Document: &doc,
		Usage: generate.Usage{
			Tier:         costs.TierPro,
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

// KeyframePrompt writes the still-image prompt on the flash tier.
func (c *Client) KeyframePrompt(ctx context.Context, req generate.PromptRequest) (*generate.PromptResult, error) {
	encoded, err := json.Marshal(req.Document)
	if err != nil {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "keyframe prompt", "encode document", err)
	}

	parts := []part{
		{Text: promptInstruction},
		{Text: "Breakdown document: " + string(encoded)},
	}
	parts = append(parts, assetParts(req.Assets)...)

	resp, err := c.generateContent(ctx, c.cfg.FlashModel, generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return nil, err
	}

	text, ok := firstText(resp)
	if !ok {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "keyframe prompt", "response carried no prompt", nil)
	}

	return &generate.PromptResult{
		Prompt: strings.TrimSpace(text),
		Usage: generate.Usage{
			Tier:         costs.TierFlash,
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

// Still renders the keyframe image, passing reference images as ingredients.
func (c *Client) Still(ctx context.Context, req generate.StillRequest) (*generate.StillResult, error) {
	parts := []part{{Text: req.Prompt}}
	for _, ref := range req.References {
		if ref.Data == "" {
			continue
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: mimeOrDefault(ref.MimeType),
			Data:     ref.Data,
		}})
	}

	resp, err := c.generateContent(ctx, c.cfg.ImageModel, generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return nil, err
	}

	img, ok := firstInline(resp)
	if !ok {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "still", "response carried no image", nil)
	}

	return &generate.StillResult{
		Image: &asset.IngredientImage{
			Name:     "keyframe",
			MimeType: img.MimeType,
			Data:     img.Data,
		},
	}, nil
}

type videoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Video submits a long-running render and polls the operation until it
// completes or the context is cancelled.
func (c *Client) Video(ctx context.Context, req generate.VideoRequest) (*generate.VideoResult, error) {
	instance := map[string]any{"prompt": videoPrompt(req)}
	if req.Keyframe != nil && req.Keyframe.Data != "" {
		instance["image"] = map[string]any{
			"mimeType":           mimeOrDefault(req.Keyframe.MimeType),
			"bytesBase64Encoded": req.Keyframe.Data,
		}
	}

	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.cfg.BaseURL, c.cfg.VideoModel)
	body, err := c.postJSON(ctx, endpoint, map[string]any{"instances": []any{instance}})
	if err != nil {
		return nil, err
	}

	var op videoOperation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "video", "decode operation", err)
	}
	if op.Name == "" {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "video", "operation carried no name", nil)
	}

	for !op.Done {
		if err := c.sleeper(ctx, c.pollInterval); err != nil {
			return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "video", "poll cancelled", err)
		}
		pollBody, err := c.getJSON(ctx, c.cfg.BaseURL+"/"+strings.TrimPrefix(op.Name, "/"))
		if err != nil {
			return nil, err
		}
		op = videoOperation{}
		if err := json.Unmarshal(pollBody, &op); err != nil {
			return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "video", "decode operation", err)
		}
	}

	if op.Error.Message != "" {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "video", op.Error.Message, nil)
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || samples[0].Video.URI == "" {
		return nil, services.Wrap(services.ErrGenerationFailure, "gemini", "video", "operation carried no video", nil)
	}
	return &generate.VideoResult{VideoURL: samples[0].Video.URI}, nil
}

func videoPrompt(req generate.VideoRequest) string {
	if req.Document == nil {
		return ""
	}
	encoded, err := json.Marshal(req.Document)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func assetParts(assets []asset.ProjectAsset) []part {
	var parts []part
	for _, a := range assets {
		label := fmt.Sprintf("Continuity reference %q (%s)", a.Name, a.Type)
		if a.Description != "" {
			label += ": " + a.Description
		}
		parts = append(parts, part{Text: label})
		if a.Image != nil && a.Image.Data != "" {
			parts = append(parts, part{InlineData: &inlineData{
				MimeType: mimeOrDefault(a.Image.MimeType),
				Data:     a.Image.Data,
			}})
		}
	}
	return parts
}

func extensionContext(req generate.BreakdownRequest) string {
	var b strings.Builder
	b.WriteString("This shot extends the previous one; keep scene and characters continuous.\n")
	if req.Previous != nil {
		if encoded, err := json.Marshal(req.Previous); err == nil {
			b.WriteString("Previous document: ")
			b.Write(encoded)
			b.WriteString("\n")
		}
	}
	if req.Directive != "" {
		b.WriteString("Extension directive: " + req.Directive)
	}
	return b.String()
}

func mimeOrDefault(mime string) string {
	if strings.TrimSpace(mime) == "" {
		return "image/png"
	}
	return mime
}
