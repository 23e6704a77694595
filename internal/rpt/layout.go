// Package rpt decodes the Papyrus RPT spool container: its fixed-layout
// header, section table, page table, and binary-object table, plus the
// per-descriptor zlib decompression used to recover page and object
// bytes.
package rpt

// Named offsets and markers for the RPT binary layout. Centralizing
// these here keeps the rest of the package free of magic numbers and
// gives the format a single place to document.
const (
	// MagicMarker is the fixed ASCII marker at the start of every RPT file.
	MagicMarker = "RPTFILEHDR"

	// PageCountOffset holds the u32 little-endian page count.
	PageCountOffset = 0x1D4
	// SectionCountOffset holds the u32 little-endian section count.
	SectionCountOffset = 0x1E4
	// BinaryObjectCountOffset holds the u32 little-endian binary-object
	// count. Only trusted when the file is at least MinSizeForBinCount
	// bytes long.
	BinaryObjectCountOffset = 0x1F4
	// MinSizeForBinCount is the minimum file size at which
	// BinaryObjectCountOffset is considered present and trustworthy.
	MinSizeForBinCount = 0x200

	// RptInstHdrOffset is added to every page/binary-object descriptor's
	// page_offset field to obtain the absolute file offset of its
	// compressed bytes.
	RptInstHdrOffset = 0xF0

	// PageRecordSize is the width in bytes of one page/binary-object
	// table entry: u32 page_offset, u32 reserved, u32 uncompressed_size,
	// u32 compressed_size.
	PageRecordSize = 16

	// SectionMarker locates the start of the section table.
	SectionMarker = "SECTIONHDR"
	// SectionRecordSize is the width in bytes of one section table entry:
	// u32 section_id, u32 start_page_zero_based, u32 page_count, plus 24
	// bytes of metadata this package does not interpret.
	SectionRecordSize = 36

	// BinaryObjectMarker locates the start of the binary-object table.
	BinaryObjectMarker = "BPAGETBLHDR"
	// BinaryObjectTableLeadIn is the number of bytes between the marker
	// and the first binary-object table entry.
	BinaryObjectTableLeadIn = 13

	// MarkerSearchLimit bounds marker-string scanning to the header
	// region so a false match can never occur deep inside a data page
	// (spec.md §9 design note).
	MarkerSearchLimit = 64 * 1024

	// MaxDecompressedObjectSize is the hard ceiling imposed on any single
	// decompressed page or binary object, bounding zip-bomb amplification.
	MaxDecompressedObjectSize = 256 * 1024 * 1024
)
