package rpt

import (
	"encoding/binary"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Section describes one named, contiguous run of pages.
type Section struct {
	SectionID int
	StartPage int // 1-based
	PageCount int
}

// parseSections locates the SECTIONHDR marker and decodes sectionCount
// fixed-size records following it.
func parseSections(r *byteReader, sectionCount uint32) ([]Section, error) {
	if sectionCount == 0 {
		return nil, nil
	}

	markerOffset := r.findMarker(SectionMarker, MarkerSearchLimit)
	if markerOffset < 0 {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "SECTIONHDR marker not found")
	}

	recordsStart := markerOffset + len(SectionMarker)
	sections := make([]Section, 0, sectionCount)
	prevStart := -1
	for i := uint32(0); i < sectionCount; i++ {
		recOffset := recordsStart + int(i)*SectionRecordSize
		rec, err := r.sliceAt(recOffset, SectionRecordSize)
		if err != nil {
			return nil, rptxerr.Wrap(rptxerr.CodeInvalidRpt, "truncated section table", err).
				WithContext("section_index", i)
		}

		sectionID := int(binary.LittleEndian.Uint32(rec[0:4]))
		startPageZeroBased := int(binary.LittleEndian.Uint32(rec[4:8]))
		pageCount := int(binary.LittleEndian.Uint32(rec[8:12]))

		startPage := startPageZeroBased + 1
		if startPage <= prevStart {
			return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "section start pages are not strictly increasing").
				WithContext("section_index", i)
		}
		prevStart = startPage

		sections = append(sections, Section{
			SectionID: sectionID,
			StartPage: startPage,
			PageCount: pageCount,
		})
	}

	return sections, nil
}

// sectionIndexForPage returns the index into sections that contains the
// given 1-based page number, or -1 if none does.
func sectionIndexForPage(sections []Section, page int) int {
	for i, s := range sections {
		if page >= s.StartPage && page < s.StartPage+s.PageCount {
			return i
		}
	}
	return -1
}
