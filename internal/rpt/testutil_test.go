package rpt

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
)

// buildTestRpt assembles a minimal, valid RPT byte buffer with the given
// page texts grouped into sections (sectionSizes sums to len(pageTexts)).
// It is the in-process fixture builder used by this package's tests,
// mirroring the teacher's practice of constructing PDF fixtures via
// write.NewSimplePDFBuilder rather than checking in binary blobs.
func buildTestRpt(pageTexts [][]byte, sectionSizes []int, binaryObjects [][]byte) []byte {
	const headerSize = 0x200
	buf := make([]byte, headerSize)
	copy(buf, MagicMarker)
	copy(buf[20:], "x\tx\tD1:S1\t2024-01-01T00:00:00\x1a")

	putU32 := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
	}
	putU32(PageCountOffset, uint32(len(pageTexts)))
	putU32(SectionCountOffset, uint32(len(sectionSizes)))
	putU32(BinaryObjectCountOffset, uint32(len(binaryObjects)))

	// Page table starts at RptInstHdrOffset; reserve space for it before
	// laying out compressed page data.
	pageTableStart := RptInstHdrOffset
	pageTableEnd := pageTableStart + len(pageTexts)*PageRecordSize
	if pageTableEnd > len(buf) {
		grown := make([]byte, pageTableEnd)
		copy(grown, buf)
		buf = grown
	}

	type placedBlob struct {
		offset           int
		compressedSize   int
		uncompressedSize int
	}

	compressAll := func(texts [][]byte) ([]byte, []placedBlob) {
		var data []byte
		var placed []placedBlob
		for _, t := range texts {
			var zbuf bytes.Buffer
			zw := zlib.NewWriter(&zbuf)
			zw.Write(t)
			zw.Close()
			placed = append(placed, placedBlob{
				offset:           len(data),
				compressedSize:   zbuf.Len(),
				uncompressedSize: len(t),
			})
			data = append(data, zbuf.Bytes()...)
		}
		return data, placed
	}

	pageData, pagePlacements := compressAll(pageTexts)
	pageDataStart := len(buf)
	buf = append(buf, pageData...)

	for i, p := range pagePlacements {
		recOff := pageTableStart + i*PageRecordSize
		pageOffsetField := uint32(pageDataStart + p.offset - RptInstHdrOffset)
		binary.LittleEndian.PutUint32(buf[recOff:recOff+4], pageOffsetField)
		binary.LittleEndian.PutUint32(buf[recOff+8:recOff+12], uint32(p.uncompressedSize))
		binary.LittleEndian.PutUint32(buf[recOff+12:recOff+16], uint32(p.compressedSize))
	}

	// Section table.
	buf = append(buf, []byte(SectionMarker)...)
	startPage := 0
	for i, count := range sectionSizes {
		rec := make([]byte, SectionRecordSize)
		binary.LittleEndian.PutUint32(rec[0:4], uint32(i+1))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(startPage))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(count))
		buf = append(buf, rec...)
		startPage += count
	}

	// Binary-object table.
	if len(binaryObjects) > 0 {
		buf = append(buf, []byte(BinaryObjectMarker)...)
		buf = append(buf, make([]byte, BinaryObjectTableLeadIn)...)
		objData, objPlacements := compressAll(binaryObjects)
		objTableOffset := len(buf)
		objDataStart := objTableOffset + len(binaryObjects)*PageRecordSize
		buf = append(buf, make([]byte, len(binaryObjects)*PageRecordSize)...)
		buf = append(buf, objData...)
		for i, p := range objPlacements {
			recOff := objTableOffset + i*PageRecordSize
			pageOffsetField := uint32(objDataStart + p.offset - RptInstHdrOffset)
			binary.LittleEndian.PutUint32(buf[recOff:recOff+4], pageOffsetField)
			binary.LittleEndian.PutUint32(buf[recOff+8:recOff+12], uint32(p.uncompressedSize))
			binary.LittleEndian.PutUint32(buf[recOff+12:recOff+16], uint32(p.compressedSize))
		}
	}

	return buf
}
