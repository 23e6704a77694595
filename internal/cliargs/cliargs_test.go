package cliargs

import (
	"testing"
)

func TestParse_LegacyPositional(t *testing.T) {
	inv, err := Parse([]string{"in.RPT", "all", "out.txt", "out.pdf"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !inv.Legacy {
		t.Fatal("expected Legacy = true")
	}
	if inv.LegacyTxt != "out.txt" || inv.LegacyBinary != "out.pdf" {
		t.Errorf("got txt=%q bin=%q", inv.LegacyTxt, inv.LegacyBinary)
	}
}

func TestParse_KeywordDSL(t *testing.T) {
	inv, err := Parse([]string{"in.RPT", "pages:1-3", "TXT", "PDF", "out/custom.pdf", "OUTPUTFOLDER", "/tmp/out"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if inv.SelectionExpr != "pages:1-3" {
		t.Errorf("SelectionExpr = %q", inv.SelectionExpr)
	}
	if len(inv.Outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(inv.Outputs))
	}
	if inv.Outputs[0].Keyword != OutputTXT || inv.Outputs[0].Path != "" {
		t.Errorf("Outputs[0] = %+v", inv.Outputs[0])
	}
	if inv.Outputs[1].Keyword != OutputPDF || inv.Outputs[1].Path != "out/custom.pdf" {
		t.Errorf("Outputs[1] = %+v", inv.Outputs[1])
	}
	if inv.OutputFolder != "/tmp/out" {
		t.Errorf("OutputFolder = %q", inv.OutputFolder)
	}
}

func TestParse_Export(t *testing.T) {
	inv, err := Parse([]string{"in.RPT", "Export"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !inv.IsExport || inv.SelectionExpr != "all" {
		t.Errorf("IsExport=%v SelectionExpr=%q", inv.IsExport, inv.SelectionExpr)
	}
}

func TestParse_ExportWithOutputOverrides(t *testing.T) {
	inv, err := Parse([]string{"in.RPT", "EXPORT", "CSV", "sections.csv"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(inv.Outputs) != 1 || inv.Outputs[0].Keyword != OutputCSV || inv.Outputs[0].Path != "sections.csv" {
		t.Errorf("Outputs = %+v", inv.Outputs)
	}
}

func TestParse_WatermarkFlags(t *testing.T) {
	inv, err := Parse([]string{
		"in.RPT", "all", "PDF",
		"WatermarkImage", "wm.png",
		"--WatermarkPosition", "BottomRight",
		"WatermarkOpacity", "50",
		"WatermarkScale", "0.5",
		"WatermarkRotation", "90",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !inv.HasWatermark {
		t.Fatal("expected HasWatermark = true")
	}
	if inv.Watermark.ImagePath != "wm.png" {
		t.Errorf("ImagePath = %q", inv.Watermark.ImagePath)
	}
	if inv.Watermark.Opacity != 50 || inv.Watermark.Scale != 0.5 || inv.Watermark.Rotation != 90 {
		t.Errorf("Watermark = %+v", inv.Watermark)
	}
}

func TestParse_InvalidWatermarkOpacityRejected(t *testing.T) {
	_, err := Parse([]string{"in.RPT", "all", "PDF", "WatermarkImage", "wm.png", "WatermarkOpacity", "150"})
	if err == nil {
		t.Fatal("expected error for out-of-range opacity")
	}
}

func TestParse_MissingSelectionIsError(t *testing.T) {
	if _, err := Parse([]string{"in.RPT"}); err == nil {
		t.Fatal("expected error for missing selection")
	}
}

func TestParse_UnrecognizedArgument(t *testing.T) {
	if _, err := Parse([]string{"in.RPT", "all", "BOGUS"}); err == nil {
		t.Fatal("expected error for unrecognized argument")
	}
}
