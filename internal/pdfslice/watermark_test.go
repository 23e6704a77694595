package pdfslice

import (
	"bytes"
	"strings"
	"testing"
)

func centeredBox(w, h float64) Placements {
	return func(pageWidth, pageHeight float64) []Box {
		return []Box{{X: (pageWidth - w) / 2, Y: (pageHeight - h) / 2, W: w, H: h}}
	}
}

func TestApplyWatermark_InjectsXObjectAndExtGState(t *testing.T) {
	doc, err := Parse(buildTestPDF(2))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	img := WatermarkImage{
		Width:      4,
		Height:     4,
		ColorSpace: "/DeviceGray",
		Data:       bytes.Repeat([]byte{0x80}, 16),
	}
	out, err := ApplyWatermark(doc, img, 0.4, centeredBox(4, 4))
	if err != nil {
		t.Fatalf("ApplyWatermark() error = %v", err)
	}

	if !bytes.Contains(out, []byte("/ImWatermark")) {
		t.Error("expected watermark XObject resource name in output")
	}
	if !bytes.Contains(out, []byte("/GSWatermark")) {
		t.Error("expected watermark ExtGState resource name in output")
	}
	if !bytes.Contains(out, []byte("/ca 0.4000")) {
		t.Error("expected opacity carried into ExtGState")
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse(watermarked) error = %v", err)
	}
	leaves, err := FlattenPages(reparsed)
	if err != nil {
		t.Fatalf("FlattenPages(watermarked) error = %v", err)
	}
	if len(leaves) != 2 {
		t.Fatalf("got %d pages, want 2 (page count must survive watermarking)", len(leaves))
	}
}

func TestApplyWatermark_WithAlphaAddsSMask(t *testing.T) {
	doc, err := Parse(buildTestPDF(1))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	img := WatermarkImage{
		Width:      2,
		Height:     2,
		ColorSpace: "/DeviceRGB",
		Data:       bytes.Repeat([]byte{0xFF, 0x00, 0x00}, 4),
		SMask:      bytes.Repeat([]byte{0x7F}, 4),
	}
	out, err := ApplyWatermark(doc, img, 0.3, centeredBox(2, 2))
	if err != nil {
		t.Fatalf("ApplyWatermark() error = %v", err)
	}
	if !bytes.Contains(out, []byte("/SMask")) {
		t.Error("expected /SMask reference when watermark has alpha")
	}
}

func TestApplyWatermark_ResolvesIndirectResourcesReference(t *testing.T) {
	doc, err := Parse(buildTestPDFIndirectResources(1))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	img := WatermarkImage{Width: 2, Height: 2, ColorSpace: "/DeviceGray", Data: []byte{1, 2, 3, 4}}

	out, err := ApplyWatermark(doc, img, 0.4, centeredBox(2, 2))
	if err != nil {
		t.Fatalf("ApplyWatermark() error = %v", err)
	}
	if !bytes.Contains(out, []byte("/ImWatermark")) {
		t.Fatal("watermark XObject was not merged when /Resources was an indirect reference")
	}
	if !bytes.Contains(out, []byte("/GSWatermark")) {
		t.Fatal("watermark ExtGState was not merged when /Resources was an indirect reference")
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse(watermarked) error = %v", err)
	}
	leaves, err := FlattenPages(reparsed)
	if err != nil {
		t.Fatalf("FlattenPages(watermarked) error = %v", err)
	}
	resDict, ok := extractBalanced(leaves[0].Dict, "Resources")
	if !ok || !bytes.Contains([]byte(resDict), []byte("/ImWatermark")) {
		t.Fatal("rewritten page's /Resources does not contain the merged watermark XObject")
	}
}

func TestApplyWatermark_MergesIntoExistingXObjectAndExtGStateSubDicts(t *testing.T) {
	doc, err := Parse(buildTestPDFWithExistingXObject(1))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	img := WatermarkImage{Width: 2, Height: 2, ColorSpace: "/DeviceGray", Data: []byte{1, 2, 3, 4}}

	out, err := ApplyWatermark(doc, img, 0.4, centeredBox(2, 2))
	if err != nil {
		t.Fatalf("ApplyWatermark() error = %v", err)
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse(watermarked) error = %v", err)
	}
	leaves, err := FlattenPages(reparsed)
	if err != nil {
		t.Fatalf("FlattenPages(watermarked) error = %v", err)
	}

	resDict, ok := extractBalanced(leaves[0].Dict, "Resources")
	if !ok {
		t.Fatal("rewritten page has no /Resources dictionary")
	}
	if strings.Count(resDict, "/XObject") != 1 {
		t.Fatalf("expected exactly one /XObject key after merge, got %d in %s", strings.Count(resDict, "/XObject"), resDict)
	}
	if strings.Count(resDict, "/ExtGState") != 1 {
		t.Fatalf("expected exactly one /ExtGState key after merge, got %d in %s", strings.Count(resDict, "/ExtGState"), resDict)
	}
	xobj, ok := extractBalanced([]byte(resDict), "XObject")
	if !ok || !bytes.Contains([]byte(xobj), []byte("/ImLogo")) || !bytes.Contains([]byte(xobj), []byte("/ImWatermark")) {
		t.Fatalf("expected /XObject sub-dict to contain both the original /ImLogo and the new /ImWatermark, got %s", xobj)
	}
	gs, ok := extractBalanced([]byte(resDict), "ExtGState")
	if !ok || !bytes.Contains([]byte(gs), []byte("/GSFaded")) || !bytes.Contains([]byte(gs), []byte("/GSWatermark")) {
		t.Fatalf("expected /ExtGState sub-dict to contain both the original /GSFaded and the new /GSWatermark, got %s", gs)
	}
}

func TestApplyWatermark_TilingDrawsMultipleBoxes(t *testing.T) {
	doc, err := Parse(buildTestPDF(1))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	img := WatermarkImage{Width: 2, Height: 2, ColorSpace: "/DeviceGray", Data: []byte{1, 2, 3, 4}}
	grid := func(pageWidth, pageHeight float64) []Box {
		return []Box{{X: 0, Y: 0, W: 2, H: 2}, {X: 10, Y: 10, W: 2, H: 2}, {X: 20, Y: 20, W: 2, H: 2}}
	}
	out, err := ApplyWatermark(doc, img, 1.0, grid)
	if err != nil {
		t.Fatalf("ApplyWatermark() error = %v", err)
	}
	if bytes.Count(out, []byte("/ImWatermark Do")) != 3 {
		t.Errorf("expected 3 Do invocations for a 3-box tiling grid on a 1-page document, got %d",
			bytes.Count(out, []byte("/ImWatermark Do")))
	}
}
