package rpt

import (
	"bytes"
	"strings"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Header is the decoded fixed-layout RPT file header.
type Header struct {
	DomainID          string
	SpeciesID         string
	Timestamp         string
	PageCount         uint32
	SectionCount      uint32
	BinaryObjectCount uint32
}

// parseHeader decodes the magic marker, the tab-separated text header,
// and the three fixed-offset counts.
func parseHeader(r *byteReader) (*Header, error) {
	magic, err := r.sliceAt(0, len(MagicMarker))
	if err != nil || string(magic) != MagicMarker {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "missing RPTFILEHDR magic marker")
	}

	domainID, speciesID, timestamp := parseTextHeader(r.data)

	pageCount, err := r.u32At(PageCountOffset)
	if err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeInvalidRpt, "truncated file: cannot read page_count", err)
	}
	sectionCount, err := r.u32At(SectionCountOffset)
	if err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeInvalidRpt, "truncated file: cannot read section_count", err)
	}

	var binCount uint32
	if r.size() >= MinSizeForBinCount {
		binCount, err = r.u32At(BinaryObjectCountOffset)
		if err != nil {
			return nil, rptxerr.Wrap(rptxerr.CodeInvalidRpt, "truncated file: cannot read binary_object_count", err)
		}
	}

	return &Header{
		DomainID:          domainID,
		SpeciesID:         speciesID,
		Timestamp:         timestamp,
		PageCount:         pageCount,
		SectionCount:      sectionCount,
		BinaryObjectCount: binCount,
	}, nil
}

// parseTextHeader extracts the tab-separated text header that precedes
// the fixed-offset fields (terminated by 0x1A or 0x00, bounded to the
// first 192 bytes). Fields 2 and 3 carry "domain_id:species_id" and a
// timestamp. Parsing failures here are non-fatal: the rest of the header
// is still read from fixed offsets.
func parseTextHeader(data []byte) (domainID, speciesID, timestamp string) {
	end := len(data)
	if end > 192 {
		end = 192
	}
	region := data[:end]
	if i := bytes.IndexAny(region, "\x1a\x00"); i >= 0 {
		region = region[:i]
	}

	fields := strings.Split(string(region), "\t")
	if len(fields) > 2 {
		domainSpecies := strings.SplitN(strings.TrimSpace(fields[2]), ":", 2)
		if len(domainSpecies) == 2 {
			domainID, speciesID = domainSpecies[0], domainSpecies[1]
		}
	}
	if len(fields) > 3 {
		timestamp = strings.TrimSpace(fields[3])
	}
	return
}
