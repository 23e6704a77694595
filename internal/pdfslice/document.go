// Package pdfslice parses a PDF byte buffer into its object graph,
// flattens its page tree, and emits a new, valid PDF containing only a
// selected subset of pages in the order given — without rewriting any
// page's content stream.
package pdfslice

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Document is a lazily-populated view over a PDF's indirect objects.
type Document struct {
	raw     []byte
	objects map[int][]byte // object number -> raw "obj ... endobj" interior bytes (dict + optional stream markers)
	root    int            // catalog object number
	info    int            // info dict object number, 0 if absent
}

var (
	reEncryptRef = regexp.MustCompile(`/Encrypt\s+(\d+)\s+\d+\s+R`)
	reRootRef    = regexp.MustCompile(`/Root\s+(\d+)\s+\d+\s+R`)
	reInfoRef    = regexp.MustCompile(`/Info\s+(\d+)\s+\d+\s+R`)
	reObjHeader  = regexp.MustCompile(`(?m)(\d+)\s+(\d+)\s+obj\b`)
	rePDFMagic   = regexp.MustCompile(`^%PDF-\d\.\d`)
)

// Parse builds a Document from raw PDF bytes. It rejects encrypted PDFs
// outright (spec.md §4.4: "Encrypted PDFs must fail with InvalidRpt
// rather than silently succeed with unreadable output") and anything
// that does not begin with a recognizable %PDF- header.
func Parse(raw []byte) (*Document, error) {
	if len(raw) < 8 || !rePDFMagic.Match(raw[:minInt(len(raw), 16)]) {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "not a PDF: missing %PDF- header")
	}
	if reEncryptRef.Match(raw) {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "encrypted PDFs are not supported")
	}

	doc := &Document{raw: raw, objects: make(map[int][]byte)}
	doc.scanObjects()

	root, info, err := doc.findTrailerRefs()
	if err != nil {
		return nil, err
	}
	doc.root = root
	doc.info = info

	if _, ok := doc.objects[doc.root]; !ok {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "catalog object not found").
			WithContext("root", doc.root)
	}

	return doc, nil
}

// scanObjects performs a direct byte scan for every "N G obj" header and
// records the interior bytes up to the matching "endobj". This mirrors
// the teacher's FindObjectByNumber fallback (parser/parser.go): rather
// than trusting a possibly-stale cross-reference table, every object is
// located by its own header, which tolerates any writer's xref quirks
// (linearization, incremental updates, omitted/compressed xref) since we
// only ever need direct object bytes, never object-stream members.
func (d *Document) scanObjects() {
	matches := reObjHeader.FindAllSubmatchIndex(d.raw, -1)
	for i, m := range matches {
		objNum, err := strconv.Atoi(string(d.raw[m[2]:m[3]]))
		if err != nil {
			continue
		}
		bodyStart := m[1]
		bodyEnd := len(d.raw)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := d.raw[bodyStart:bodyEnd]
		if idx := bytes.Index(body, []byte("endobj")); idx >= 0 {
			body = body[:idx]
		}
		// Last definition wins: later objects in the byte stream belong
		// to later incremental-update revisions.
		d.objects[objNum] = body
	}
}

func (d *Document) findTrailerRefs() (root int, info int, err error) {
	rootMatches := reRootRef.FindAllSubmatch(d.raw, -1)
	if len(rootMatches) == 0 {
		return 0, 0, rptxerr.New(rptxerr.CodeInvalidRpt, "no /Root reference found")
	}
	last := rootMatches[len(rootMatches)-1]
	root, _ = strconv.Atoi(string(last[1]))

	if infoMatches := reInfoRef.FindAllSubmatch(d.raw, -1); len(infoMatches) > 0 {
		lastInfo := infoMatches[len(infoMatches)-1]
		info, _ = strconv.Atoi(string(lastInfo[1]))
	}
	return root, info, nil
}

// Object returns the raw interior bytes of object number n.
func (d *Document) Object(n int) ([]byte, bool) {
	b, ok := d.objects[n]
	return b, ok
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func fmtRef(objNum int) string {
	return fmt.Sprintf("%d 0 R", objNum)
}
