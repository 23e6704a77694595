package pdfslice

import (
	"bytes"
	"strings"
	"testing"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

func TestParse_FindsRootAndObjects(t *testing.T) {
	doc, err := Parse(buildTestPDF(5))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.root != 1 {
		t.Errorf("root = %d, want 1", doc.root)
	}
	if _, ok := doc.Object(2); !ok {
		t.Error("expected pages-root object 2 to be present")
	}
}

func TestParse_RejectsEncrypted(t *testing.T) {
	raw := buildTestPDF(1)
	raw = append(raw, []byte("\n7 0 obj\n<< /Filter /Standard /V 2 >>\nendobj\ntrailer\n<< /Encrypt 7 0 R >>\n")...)
	_, err := Parse(raw)
	assertPDFErrCode(t, err, rptxerr.CodeInvalidRpt)
}

func TestParse_RejectsNonPDF(t *testing.T) {
	_, err := Parse([]byte("not a pdf at all"))
	assertPDFErrCode(t, err, rptxerr.CodeInvalidRpt)
}

func TestFlattenPages_InheritsResourcesAndOverridesMediaBox(t *testing.T) {
	doc, err := Parse(buildTestPDF(3))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	leaves, err := FlattenPages(doc)
	if err != nil {
		t.Fatalf("FlattenPages() error = %v", err)
	}
	if len(leaves) != 3 {
		t.Fatalf("got %d leaves, want 3", len(leaves))
	}
	for i, leaf := range leaves {
		if !strings.Contains(leaf.Resources, "/Font") {
			t.Errorf("leaf %d: expected inherited /Resources with /Font, got %q", i, leaf.Resources)
		}
	}
	if leaves[2].MediaBox != "[0 0 200 200]" {
		t.Errorf("leaf 2 MediaBox = %q, want its own override [0 0 200 200]", leaves[2].MediaBox)
	}
	if leaves[0].MediaBox != "[0 0 612 792]" {
		t.Errorf("leaf 0 MediaBox = %q, want inherited [0 0 612 792]", leaves[0].MediaBox)
	}
}

func TestSlice_SelectedPagesRoundTrip(t *testing.T) {
	doc, err := Parse(buildTestPDF(5))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := Slice(doc, []int{2, 4})
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}

	sliced, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse(sliced) error = %v", err)
	}
	leaves, err := FlattenPages(sliced)
	if err != nil {
		t.Fatalf("FlattenPages(sliced) error = %v", err)
	}
	if len(leaves) != 2 {
		t.Fatalf("got %d pages in sliced output, want 2", len(leaves))
	}
	if !bytes.Contains(out, []byte("Papyrus Content Governance")) {
		t.Error("expected /Creator stamp in sliced output")
	}
	if !bytes.Contains(out, []byte("ISIS Papyrus")) {
		t.Error("expected /Producer stamp in sliced output")
	}
}

func TestSlice_CarriesDeepDependency(t *testing.T) {
	doc, err := Parse(buildTestPDF(2))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := Slice(doc, []int{1})
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}
	if !bytes.Contains(out, []byte("/BaseFont /Helvetica")) {
		t.Error("expected shared font object (reachable only via inherited /Resources) to be carried into sliced output")
	}
}

func TestSlice_IndexOutOfRange(t *testing.T) {
	doc, err := Parse(buildTestPDF(2))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	_, err = Slice(doc, []int{5})
	assertPDFErrCode(t, err, rptxerr.CodeInvalidSelection)
}

func assertPDFErrCode(t *testing.T, err error, want rptxerr.Code) {
	t.Helper()
	var e *rptxerr.Error
	if !rptxerr.As(err, &e) {
		t.Fatalf("expected *rptxerr.Error, got %v (%T)", err, err)
	}
	if e.Code != want {
		t.Errorf("Code = %s, want %s", e.Code, want)
	}
}
