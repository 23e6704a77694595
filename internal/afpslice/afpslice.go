// Package afpslice walks an AFP (MO:DCA) structured-field stream and
// extracts a page-aligned subset of it.
//
// Structured-field parsing follows the fixed-width-record style of
// laenix/ewfgo's EWF section reader (encoding/binary over a byte
// cursor): every structured field has the same 8-byte introducer no
// matter its type, so one decoder loop walks the whole stream the way
// ewfgo walks its EWF section chain.
package afpslice

import (
	"encoding/binary"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Field IDs this package needs to recognize page/document boundaries.
// AFP structured field IDs are 3 bytes: class, type, category.
var (
	fieldBPG = [3]byte{0xD3, 0xA8, 0xAF} // Begin Page
	fieldEPG = [3]byte{0xD3, 0xA9, 0xAF} // End Page
	fieldBDT = [3]byte{0xD3, 0xA8, 0xA8} // Begin Document
	fieldEDT = [3]byte{0xD3, 0xA9, 0xA8} // End Document
)

const introducer = 0x5A

// Field is one structured field: its 8-byte introducer (length, id,
// flag, reserved) plus its data payload, as a contiguous byte slice into
// the original stream.
type Field struct {
	ID   [3]byte
	Data []byte // full field including the introducer
}

// Parse decodes raw into its sequence of structured fields.
func Parse(raw []byte) ([]Field, error) {
	var fields []Field
	i := 0
	for i < len(raw) {
		if raw[i] != introducer {
			return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: expected structured field introducer 0x5A").
				WithContext("offset", i)
		}
		if i+8 > len(raw) {
			return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: truncated structured field header").
				WithContext("offset", i)
		}
		length := int(binary.BigEndian.Uint16(raw[i+1 : i+3]))
		if length < 8 {
			return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: implausible structured field length").
				WithContext("offset", i).WithContext("length", length)
		}
		end := i + 1 + length
		if end > len(raw) {
			return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: structured field runs past end of buffer").
				WithContext("offset", i).WithContext("length", length)
		}
		var id [3]byte
		copy(id[:], raw[i+3:i+6])
		fields = append(fields, Field{ID: id, Data: raw[i:end]})
		i = end
	}
	return fields, nil
}

// Page is one BPG..EPG span (inclusive) of the original stream.
type Page struct {
	Fields []Field
}

// Pages groups a parsed field sequence into pages bounded by BPG/EPG
// pairs. Structured fields outside any BPG/EPG span (the BDT preamble,
// resource groups before the first page, the EDT trailer) are returned
// separately as preamble/trailer so Slice can preserve them verbatim.
type Pages struct {
	Preamble []Field
	Pages    []Page
	Trailer  []Field
}

// GroupPages scans fields for BPG/EPG boundaries. A BPG with no matching
// EPG before end of stream, or an EPG with no open BPG, is an invalid
// RPT (spec.md §4.5: AFP page boundaries must be well-formed before any
// selection is attempted).
//
// spec.md §4.5 step 3's output is exactly three parts: the prologue up to
// the first BPG, each selected page's own [BPG, EPG] byte range, and the
// epilogue from the closing EDT onward — there is no slot for content
// between one page's EPG and the next page's BPG, so a field there is
// dropped rather than folded into Trailer. Only fields after the *last*
// EPG in the stream are genuine trailer content; lastEPGIdx is found with
// a first pass so the classification below doesn't have to guess whether
// a later BPG is still coming.
func GroupPages(fields []Field) (*Pages, error) {
	lastEPGIdx := -1
	for i, f := range fields {
		if f.ID == fieldEPG {
			lastEPGIdx = i
		}
	}

	var result Pages
	var current *Page
	sawFirstPage := false

	for i, f := range fields {
		switch f.ID {
		case fieldBPG:
			if current != nil {
				return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: nested BPG without matching EPG")
			}
			current = &Page{}
			sawFirstPage = true
		case fieldEPG:
			if current == nil {
				return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: EPG without matching BPG")
			}
			current.Fields = append(current.Fields, f)
			result.Pages = append(result.Pages, *current)
			current = nil
			continue
		}
		switch {
		case current != nil:
			current.Fields = append(current.Fields, f)
		case !sawFirstPage:
			result.Preamble = append(result.Preamble, f)
		case i > lastEPGIdx:
			result.Trailer = append(result.Trailer, f)
		}
		// Else: the field sits between one page's EPG and the next
		// page's BPG and is dropped per spec.md §4.5 step 3.
	}
	if current != nil {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "AFP stream: BPG without matching EPG")
	}
	return &result, nil
}

// Slice rebuilds an AFP stream containing only the selected 1-based page
// indices, in the order given, preserving the original preamble (BDT,
// resource groups, fonts, overlays declared before the first page) and
// trailer (EDT) verbatim around them.
//
// Non-contiguous or reordered AFP page selection is accepted: unlike
// PDF's object graph, AFP pages carry no forward references to later
// pages, so pages can be freely reordered or dropped without a
// dependency-closure pass.
func Slice(p *Pages, pageIndices []int) ([]byte, error) {
	for _, idx := range pageIndices {
		if idx < 1 || idx > len(p.Pages) {
			return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "AFP page index out of range").
				WithContext("index", idx).WithContext("pageCount", len(p.Pages))
		}
	}

	var out []byte
	for _, f := range p.Preamble {
		out = append(out, f.Data...)
	}
	for _, idx := range pageIndices {
		for _, f := range p.Pages[idx-1].Fields {
			out = append(out, f.Data...)
		}
	}
	for _, f := range p.Trailer {
		out = append(out, f.Data...)
	}
	return out, nil
}
