package rpt

import (
	"encoding/binary"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Descriptor locates one compressed page or binary-object payload.
type Descriptor struct {
	PageOffset       uint32 // raw field; absolute offset is PageOffset + RptInstHdrOffset
	UncompressedSize uint32
	CompressedSize   uint32
	SectionIndex     int // -1 for binary objects, which have no section
}

// AbsoluteOffset returns the absolute file offset of the descriptor's
// compressed bytes.
func (d Descriptor) AbsoluteOffset() int64 {
	return int64(d.PageOffset) + RptInstHdrOffset
}

// parseRecordTable decodes count fixed-size 16-byte records starting at
// startOffset, validating that each descriptor's compressed bytes fit
// within the file.
func parseRecordTable(r *byteReader, startOffset int, count uint32) ([]Descriptor, error) {
	descs := make([]Descriptor, 0, count)
	for i := uint32(0); i < count; i++ {
		recOffset := startOffset + int(i)*PageRecordSize
		rec, err := r.sliceAt(recOffset, PageRecordSize)
		if err != nil {
			return nil, rptxerr.Wrap(rptxerr.CodeInvalidRpt, "truncated page/object table", err).
				WithContext("record_index", i)
		}

		pageOffset := binary.LittleEndian.Uint32(rec[0:4])
		// rec[4:8] is reserved
		uncompressedSize := binary.LittleEndian.Uint32(rec[8:12])
		compressedSize := binary.LittleEndian.Uint32(rec[12:16])

		d := Descriptor{
			PageOffset:       pageOffset,
			UncompressedSize: uncompressedSize,
			CompressedSize:   compressedSize,
			SectionIndex:     -1,
		}

		absOffset := d.AbsoluteOffset()
		if absOffset < 0 || absOffset+int64(compressedSize) > r.size() {
			return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "descriptor bytes exceed file size").
				WithContext("record_index", i).
				WithContext("absolute_offset", absOffset).
				WithContext("compressed_size", compressedSize)
		}

		descs = append(descs, d)
	}
	return descs, nil
}

// parsePageTable decodes the page table starting at RptInstHdrOffset and
// assigns each page's SectionIndex from the section table.
func parsePageTable(r *byteReader, pageCount uint32, sections []Section) ([]Descriptor, error) {
	descs, err := parseRecordTable(r, RptInstHdrOffset, pageCount)
	if err != nil {
		return nil, err
	}
	for i := range descs {
		descs[i].SectionIndex = sectionIndexForPage(sections, i+1)
	}
	return descs, nil
}

// parseBinaryObjectTable locates the BPAGETBLHDR marker and decodes
// objectCount fixed-size records following its lead-in bytes.
func parseBinaryObjectTable(r *byteReader, objectCount uint32) ([]Descriptor, error) {
	if objectCount == 0 {
		return nil, nil
	}

	markerOffset := r.findMarker(BinaryObjectMarker, MarkerSearchLimit)
	if markerOffset < 0 {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "BPAGETBLHDR marker not found")
	}

	recordsStart := markerOffset + len(BinaryObjectMarker) + BinaryObjectTableLeadIn
	return parseRecordTable(r, recordsStart, objectCount)
}
