package rpt

import (
	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// File is a fully-decoded RPT container. The raw buffer is retained for
// the lifetime of the File; every Descriptor is a view over it.
type File struct {
	Raw      []byte
	Header   *Header
	Sections []Section
	Pages    []Descriptor
	Objects  []Descriptor
}

// Parse decodes the RPT container in raw: header, section table, page
// table, and binary-object table. It validates the magic marker and
// every descriptor's bounds, but does not decompress anything.
func Parse(raw []byte) (*File, error) {
	r := newByteReader(raw)

	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	sections, err := parseSections(r, header.SectionCount)
	if err != nil {
		return nil, err
	}

	var totalSectionPages int
	for _, s := range sections {
		totalSectionPages += s.PageCount
	}
	if uint32(totalSectionPages) != header.PageCount && len(sections) > 0 {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "sum of section page counts does not match header page_count").
			WithContext("section_total", totalSectionPages).
			WithContext("header_page_count", header.PageCount)
	}

	pages, err := parsePageTable(r, header.PageCount, sections)
	if err != nil {
		return nil, err
	}

	objects, err := parseBinaryObjectTable(r, header.BinaryObjectCount)
	if err != nil {
		return nil, err
	}

	return &File{
		Raw:      raw,
		Header:   header,
		Sections: sections,
		Pages:    pages,
		Objects:  objects,
	}, nil
}

// PageText decompresses and returns the text bytes of the given 1-based
// page number.
func (f *File) PageText(page int) ([]byte, error) {
	if page < 1 || page > len(f.Pages) {
		return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "page out of range").
			WithContext("page", page)
	}
	return Decompress(f.Raw, f.Pages[page-1])
}

// HasBinaryObjects reports whether the file declares any binary objects.
func (f *File) HasBinaryObjects() bool {
	return len(f.Objects) > 0
}

// DecompressBinaryObjects decompresses and concatenates every binary
// object's bytes in table order.
func (f *File) DecompressBinaryObjects() ([]byte, error) {
	var out []byte
	for i, d := range f.Objects {
		chunk, err := Decompress(f.Raw, d)
		if err != nil {
			return nil, rptxerr.Wrap(rptxerr.CodeDecompressionError, "failed to decompress binary object", err).
				WithContext("object_index", i)
		}
		out = append(out, chunk...)
	}
	return out, nil
}
