package rpt

import (
	"bytes"
	"encoding/binary"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// byteReader is a random-access, read-only view over an RPT file's raw
// bytes. It never copies the underlying buffer; every slice it returns
// aliases it.
type byteReader struct {
	data []byte
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) size() int64 {
	return int64(len(r.data))
}

// u32At reads a little-endian uint32 at the given absolute offset.
func (r *byteReader) u32At(offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(r.data) {
		return 0, rptxerr.New(rptxerr.CodeInvalidRpt, "offset out of range reading u32").
			WithContext("offset", offset)
	}
	return binary.LittleEndian.Uint32(r.data[offset : offset+4]), nil
}

// sliceAt returns the n bytes starting at offset, bounds-checked.
func (r *byteReader) sliceAt(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > len(r.data) {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "slice out of range").
			WithContext("offset", offset).WithContext("length", n)
	}
	return r.data[offset : offset+n], nil
}

// findMarker returns the offset of the first occurrence of marker within
// the first limit bytes of the file, or -1 if not found.
func (r *byteReader) findMarker(marker string, limit int) int {
	end := limit
	if end > len(r.data) {
		end = len(r.data)
	}
	idx := bytes.Index(r.data[:end], []byte(marker))
	return idx
}
