// Package asset defines reusable continuity references and image payloads.
package asset

import "strings"

// Type tags a project asset by the continuity role it plays.
type Type string

const (
	TypeCharacter Type = "character"
	TypeLocation  Type = "location"
	TypeProp      Type = "prop"
	TypeStyle     Type = "style"
)

var allTypes = []Type{TypeCharacter, TypeLocation, TypeProp, TypeStyle}

// AllTypes returns the ordered list of known asset types.
func AllTypes() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseType converts a string into a known Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range allTypes {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// IngredientImage is an encoded image payload used either as a library
// asset's image or as an ad-hoc per-shot reference.
type IngredientImage struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded bytes
}

// ProjectAsset is a reusable continuity reference (character, location,
// prop, or style) attached to shots by identifier.
type ProjectAsset struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Type        Type             `json:"type"`
	Image       *IngredientImage `json:"image,omitempty"`
}

// HasImage reports whether the asset carries an image usable for visual
// continuity lock.
func (a ProjectAsset) HasImage() bool {
	return a.Image != nil && strings.TrimSpace(a.Image.Data) != ""
}

// ExtensionForMime maps an image mime type to a vault object file extension.
func ExtensionForMime(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
