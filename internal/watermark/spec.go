package watermark

import (
	"strings"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Position names the nine compass anchors plus the two special modes
// spec.md §3's WatermarkSpec data model requires.
type Position int

const (
	PositionCenter Position = iota
	PositionTopLeft
	PositionTopCenter
	PositionTopRight
	PositionMiddleLeft
	PositionMiddleRight
	PositionBottomLeft
	PositionBottomCenter
	PositionBottomRight
	PositionRepeat
	PositionTiling
)

var positionNames = map[string]Position{
	"center":       PositionCenter,
	"topleft":      PositionTopLeft,
	"topcenter":    PositionTopCenter,
	"topright":     PositionTopRight,
	"middleleft":   PositionMiddleLeft,
	"middleright":  PositionMiddleRight,
	"bottomleft":   PositionBottomLeft,
	"bottomcenter": PositionBottomCenter,
	"bottomright":  PositionBottomRight,
	"repeat":       PositionRepeat,
	"tiling":       PositionTiling,
}

// ParsePosition parses a WatermarkPosition CLI value, case- and
// whitespace-insensitively.
func ParsePosition(s string) (Position, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if p, ok := positionNames[key]; ok {
		return p, nil
	}
	return 0, rptxerr.New(rptxerr.CodeInvalidArguments, "unknown watermark position").
		WithContext("value", s)
}

// Spec is the CLI-facing watermark configuration, matching spec.md §3's
// WatermarkSpec entity (image path; position; rotation degrees; opacity
// percent; scale factor), with the documented defaults.
type Spec struct {
	ImagePath  string
	Position   Position
	Rotation   float64 // degrees
	Opacity    float64 // percent, 0-100
	Scale      float64 // 0.1-4.0
	ApplyToAFP bool
}

// DefaultSpec returns Center/0°/30%/1.0x, per spec.md §3.
func DefaultSpec(imagePath string) Spec {
	return Spec{
		ImagePath: imagePath,
		Position:  PositionCenter,
		Rotation:  0,
		Opacity:   30,
		Scale:     1.0,
	}
}

// Validate enforces the opacity and scale ranges from spec.md §3.
func (s Spec) Validate() error {
	if s.Opacity < 0 || s.Opacity > 100 {
		return rptxerr.New(rptxerr.CodeInvalidArguments, "WatermarkOpacity must be in [0,100]").
			WithContext("value", s.Opacity)
	}
	if s.Scale < 0.1 || s.Scale > 4.0 {
		return rptxerr.New(rptxerr.CodeInvalidArguments, "WatermarkScale must be in [0.1,4.0]").
			WithContext("value", s.Scale)
	}
	return nil
}
