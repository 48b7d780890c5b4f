package shot

// UnitTypeExtend is the wire value marking an extension unit inside the
// breakdown document, kept for snapshot compatibility.
const UnitTypeExtend = "extend"

// VeoShotWrapper is the structured, generation-ready document for a shot.
// Once generated it is treated as an opaque, versioned artifact: the
// lifecycle engine only cares about presence or absence.
type VeoShotWrapper struct {
	UnitType string  `json:"unit_type,omitempty"`
	Shot     VeoShot `json:"shot"`
}

// VeoShot carries the scene parameters, continuity description, camera and
// audio directives, and the flags block of a breakdown document.
type VeoShot struct {
	Scene                string   `json:"scene,omitempty"`
	DurationSeconds      float64  `json:"duration_seconds,omitempty"`
	CharacterDescription string   `json:"character_description,omitempty"`
	Camera               string   `json:"camera,omitempty"`
	Audio                string   `json:"audio,omitempty"`
	ExtensionDirective   string   `json:"extension_directive,omitempty"`
	Flags                VeoFlags `json:"flags"`
}

// VeoFlags carries continuity-lock state, prohibited-content markers,
// detected conflicts, and warnings.
type VeoFlags struct {
	ContinuityLocked  bool     `json:"continuity_locked"`
	ProhibitedContent []string `json:"prohibited_content,omitempty"`
	Conflicts         []string `json:"conflicts,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// ExtensionDocument derives the breakdown document for an extension unit
// seeded from the original's continuity fields and a user directive.
func ExtensionDocument(original *VeoShotWrapper, directive string) *VeoShotWrapper {
	doc := &VeoShotWrapper{UnitType: UnitTypeExtend}
	if original != nil {
		doc.Shot.Scene = original.Shot.Scene
		doc.Shot.CharacterDescription = original.Shot.CharacterDescription
		doc.Shot.Flags.ContinuityLocked = original.Shot.Flags.ContinuityLocked
	}
	doc.Shot.ExtensionDirective = directive
	return doc
}
