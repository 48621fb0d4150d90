package generation

import "strings"

// Defect is a tag from the scorer's shared vocabulary.
type Defect string

const (
	DefectOnImageText       Defect = "on-image-text"
	DefectBlankFrame        Defect = "blank-frame"
	DefectMismatchedContent Defect = "mismatched-content"
	DefectBrandColor        Defect = "brand-noncompliant-color"
	DefectDistortedAnatomy  Defect = "distorted-anatomy"
	DefectLowResolution     Defect = "low-resolution"
	DefectWatermark         Defect = "provider-watermark"
	DefectMotionArtifact    Defect = "motion-artifact"
)

var knownDefects = map[Defect]struct{}{
	DefectOnImageText:       {},
	DefectBlankFrame:        {},
	DefectMismatchedContent: {},
	DefectBrandColor:        {},
	DefectDistortedAnatomy:  {},
	DefectLowResolution:     {},
	DefectWatermark:         {},
	DefectMotionArtifact:    {},
}

// IsKnown reports whether the tag belongs to the shared vocabulary.
func (d Defect) IsKnown() bool {
	_, ok := knownDefects[d]
	return ok
}

// ParseDefects normalizes raw tags, dropping blanks and duplicates while
// keeping the scorer's order. Unknown tags are kept.
func ParseDefects(raw []string) []Defect {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[Defect]struct{}, len(raw))
	out := make([]Defect, 0, len(raw))
	for _, r := range raw {
		d := Defect(strings.ToLower(strings.TrimSpace(r)))
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Summary joins defects for human-readable reasons.
func Summary(defects []Defect) string {
	if len(defects) == 0 {
		return "no defects reported"
	}
	parts := make([]string, len(defects))
	for i, d := range defects {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

func containsDefect(defects []Defect, d Defect) bool {
	for _, x := range defects {
		if x == d {
			return true
		}
	}
	return false
}
