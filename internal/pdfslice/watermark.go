package pdfslice

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

// WatermarkImage is the pixel data for a single raster watermark,
// already split into its color plane and an optional alpha soft mask —
// the shape internal/watermark hands in after decoding and resizing the
// source file.
type WatermarkImage struct {
	Width, Height int
	ColorSpace    string // "/DeviceRGB" or "/DeviceGray"
	Data          []byte
	SMask         []byte // DeviceGray alpha plane, nil for no soft mask
}

// Box is one placement of the watermark image on a page, in PDF
// user-space points, anchored at its bottom-left corner — exactly the
// operands of the "w 0 0 h x y cm" content-stream snippet spec.md §4.6
// step 2 specifies. The image itself is pre-rotated by internal/watermark
// before reaching this package, and its drawn size is set by W and H in
// the cm matrix, so no rotation component appears here: the only
// transform pdfslice performs is the axis-aligned placement the spec's
// content stream shows.
type Box struct {
	X, Y, W, H float64
}

// Placements computes where to draw the watermark on one page, given
// that page's MediaBox dimensions in points. Most positions return a
// single Box; Tiling returns a grid.
type Placements func(pageWidth, pageHeight float64) []Box

// ApplyWatermark overlays img on every page of doc — once per Box
// Placements returns for that page's dimensions — using a single
// shared image XObject and ExtGState, returning the rewritten PDF. The
// original content stream of each page is left untouched: the
// watermark is injected as an additional entry in /Contents, drawn
// after the page's own content per spec.md §4.6.
func ApplyWatermark(doc *Document, img WatermarkImage, opacity float64, placements Placements) ([]byte, error) {
	leaves, err := FlattenPages(doc)
	if err != nil {
		return nil, err
	}

	final := make(map[int][]byte, len(doc.objects)+len(leaves)*2+4)
	for n, body := range doc.objects {
		final[n] = body
	}

	nextObj := maxObjNum(doc) + 1
	imageObj := nextObj
	nextObj++
	var smaskObj int
	if img.SMask != nil {
		smaskObj = nextObj
		nextObj++
	}
	gsObj := nextObj
	nextObj++

	final[imageObj] = buildImageObject(img, smaskObj)
	if img.SMask != nil {
		final[smaskObj] = buildSMaskObject(img)
	}
	final[gsObj] = []byte(fmt.Sprintf("<< /Type /ExtGState /ca %s /CA %s >>", fmtNum(clamp01(opacity)), fmtNum(clamp01(opacity))))

	infoObj := doc.info
	if infoObj == 0 {
		infoObj = nextObj
		nextObj++
		final[infoObj] = []byte("<< /Creator (Papyrus Content Governance) /Producer (ISIS Papyrus) >>")
	}

	for _, leaf := range leaves {
		contentObj := nextObj
		nextObj++

		// Pick resource names the page's /Resources does not already use.
		resources := resolveResourcesDict(doc, leaf.Resources)
		imName, gsName := "ImWatermark", "GSWatermark"
		for i := 1; bytes.Contains(resources, []byte("/"+imName)) || bytes.Contains(resources, []byte("/"+gsName)); i++ {
			imName, gsName = fmt.Sprintf("ImWatermark%d", i), fmt.Sprintf("GSWatermark%d", i)
		}

		width, height := pageSize(leaf)
		var stream bytes.Buffer
		for _, box := range placements(width, height) {
			fmt.Fprintf(&stream, "q\n/%s gs\n%s %s %s %s %s %s cm\n/%s Do\nQ\n",
				gsName, fmtNum(box.W), fmtNum(0), fmtNum(0), fmtNum(box.H), fmtNum(box.X), fmtNum(box.Y), imName)
		}
		final[contentObj] = []byte(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String()))

		resources = mergeSubDict(resources, "XObject", imName, fmtRef(imageObj))
		resources = mergeSubDict(resources, "ExtGState", gsName, fmtRef(gsObj))

		newDict := setDictValue(leaf.Dict, "Resources", string(resources))
		newDict = setDictValue(newDict, "Contents", appendContents(leaf.Dict, contentObj))
		final[leaf.ObjNum] = newDict
	}

	return writePDF(final, doc.root, infoObj)
}

func pageSize(leaf PageNode) (float64, float64) {
	if leaf.MediaBox == "" {
		return 612, 792 // US Letter, PDF's implicit default when /MediaBox is absent at every level
	}
	var x0, y0, x1, y1 float64
	if _, err := fmt.Sscanf(leaf.MediaBox, "[%f %f %f %f]", &x0, &y0, &x1, &y1); err != nil {
		return 612, 792
	}
	return x1 - x0, y1 - y0
}

func fmtNum(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func buildImageObject(img WatermarkImage, smaskObj int) []byte {
	compressed := deflate(img.Data)
	dict := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 /Filter /FlateDecode /Length %d",
		img.Width, img.Height, img.ColorSpace, len(compressed))
	if smaskObj != 0 {
		dict += fmt.Sprintf(" /SMask %d 0 R", smaskObj)
	}
	dict += " >>"
	return buildStreamObject(dict, compressed)
}

func buildSMaskObject(img WatermarkImage) []byte {
	compressed := deflate(img.SMask)
	dict := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode /Length %d >>",
		img.Width, img.Height, len(compressed))
	return buildStreamObject(dict, compressed)
}

func buildStreamObject(dict string, stream []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(dict)
	buf.WriteString("\nstream\n")
	buf.Write(stream)
	buf.WriteString("\nendstream")
	return buf.Bytes()
}

func deflate(raw []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(raw)
	w.Close()
	return buf.Bytes()
}

// resolveResourcesDict returns the literal "<< ... >>" bytes of a page's
// /Resources value, dereferencing it first if FlattenPages's inheritance
// walk only found an indirect reference (pages.go's extractBalancedOrScalar
// falls back to a scalar ref when the value at the inheriting level isn't
// a literal dictionary — a real case for pages that only inherit
// /Resources from an ancestor /Pages node that itself stores it
// indirectly).
func resolveResourcesDict(doc *Document, resources string) []byte {
	if resources == "" {
		return nil
	}
	if n, ok := parseSingleRef(resources); ok {
		body, ok := doc.Object(n)
		if !ok {
			return nil
		}
		return body
	}
	return []byte(resources)
}

// mergeSubDict inserts /keyName objRef into resources's /subKey
// sub-dictionary, creating /subKey (and resources itself) from scratch if
// absent, instead of appending a second top-level /subKey entry when one
// already exists — a duplicate key is invalid PDF and was this function's
// predecessor's bug.
func mergeSubDict(resources []byte, subKey, keyName, objRef string) []byte {
	if len(resources) == 0 {
		return []byte(fmt.Sprintf("<< /%s << /%s %s >> >>", subKey, keyName, objRef))
	}
	if existing, ok := extractBalanced(resources, subKey); ok {
		closeIdx := lastIndexToken([]byte(existing), []byte(">>"))
		if closeIdx < 0 {
			return resources
		}
		merged := existing[:closeIdx] + fmt.Sprintf(" /%s %s ", keyName, objRef) + existing[closeIdx:]
		return bytes.Replace(resources, []byte(existing), []byte(merged), 1)
	}
	closeIdx := lastIndexToken(resources, []byte(">>"))
	if closeIdx < 0 {
		return resources
	}
	insertion := []byte(fmt.Sprintf(" /%s << /%s %s >> ", subKey, keyName, objRef))
	out := make([]byte, 0, len(resources)+len(insertion))
	out = append(out, resources[:closeIdx]...)
	out = append(out, insertion...)
	out = append(out, resources[closeIdx:]...)
	return out
}

// appendContents returns a /Contents array value containing the page's
// existing content stream reference(s) followed by newObj.
func appendContents(pageDict []byte, newObj int) string {
	if arr, ok := extractBalanced(pageDict, "Contents"); ok {
		b := []byte(arr)
		closeIdx := lastIndexToken(b, []byte("]"))
		if closeIdx >= 0 {
			return string(b[:closeIdx]) + fmt.Sprintf(" %d 0 R ", newObj) + string(b[closeIdx:])
		}
	}
	if ref, ok := extractDictValue(pageDict, "Contents"); ok {
		return fmt.Sprintf("[%s %d 0 R]", ref, newObj)
	}
	return fmt.Sprintf("[%d 0 R]", newObj)
}
