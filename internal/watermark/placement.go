package watermark

import (
	"github.com/isis-papyrus/rptx/internal/pdfslice"
)

// minWatermarkSize is the floor spec.md §4.6 step 1 imposes on the
// watermark's base size, regardless of how small scale or the page
// makes it: "minimum 50 units".
const minWatermarkSize = 50.0

// buildPlacements returns the pdfslice.Placements function that anchors
// a watermark of imgW x imgH pixels at pos, for a given scale factor.
// Box dimensions are recomputed per page (spec.md §4.6 step 1: the base
// size is a fraction of that page's own MediaBox), so the same
// Placements value is safe to reuse across pages of differing size.
func buildPlacements(pos Position, scale float64, imgW, imgH int) pdfslice.Placements {
	aspect := 1.0
	if imgH > 0 {
		aspect = float64(imgW) / float64(imgH)
	}

	return func(pageWidth, pageHeight float64) []pdfslice.Box {
		w, h := watermarkSize(pageWidth, pageHeight, scale, aspect)
		switch pos {
		case PositionRepeat:
			return []pdfslice.Box{anchorBox(PositionCenter, pageWidth, pageHeight, w, h)}
		case PositionTiling:
			return tileBoxes(pageWidth, pageHeight, w, h)
		default:
			return []pdfslice.Box{anchorBox(pos, pageWidth, pageHeight, w, h)}
		}
	}
}

// watermarkSize scales the longer edge of the source image to
// 0.30 * min(pageWidth, pageHeight) * scale (floored at
// minWatermarkSize), preserving aspect ratio.
func watermarkSize(pageWidth, pageHeight, scale, aspect float64) (w, h float64) {
	minSide := pageWidth
	if pageHeight < minSide {
		minSide = pageHeight
	}
	base := 0.30 * minSide * scale
	if base < minWatermarkSize {
		base = minWatermarkSize
	}
	if aspect >= 1 {
		return base, base / aspect
	}
	return base * aspect, base
}

// anchorBox places a w x h box at pos on a pageWidth x pageHeight page.
func anchorBox(pos Position, pageWidth, pageHeight, w, h float64) pdfslice.Box {
	left, right := 0.0, pageWidth-w
	bottom, top := 0.0, pageHeight-h
	midX, midY := (pageWidth-w)/2, (pageHeight-h)/2

	var x, y float64
	switch pos {
	case PositionTopLeft:
		x, y = left, top
	case PositionTopCenter:
		x, y = midX, top
	case PositionTopRight:
		x, y = right, top
	case PositionMiddleLeft:
		x, y = left, midY
	case PositionMiddleRight:
		x, y = right, midY
	case PositionBottomLeft:
		x, y = left, bottom
	case PositionBottomCenter:
		x, y = midX, bottom
	case PositionBottomRight:
		x, y = right, bottom
	default: // PositionCenter
		x, y = midX, midY
	}
	return pdfslice.Box{X: x, Y: y, W: w, H: h}
}

// tileBoxes lays out a grid of w x h boxes across the page, stepping by
// the watermark size plus 25% padding (spec.md §4.6 step 2).
func tileBoxes(pageWidth, pageHeight, w, h float64) []pdfslice.Box {
	stepX, stepY := w*1.25, h*1.25
	if stepX <= 0 || stepY <= 0 {
		return nil
	}

	var boxes []pdfslice.Box
	for y := 0.0; y < pageHeight; y += stepY {
		for x := 0.0; x < pageWidth; x += stepX {
			boxes = append(boxes, pdfslice.Box{X: x, Y: y, W: w, H: h})
		}
	}
	return boxes
}
