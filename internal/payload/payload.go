// Package payload materializes an RPT's binary-object table into a
// single in-memory buffer and classifies it as PDF or AFP by magic
// bytes.
package payload

import (
	"github.com/isis-papyrus/rptx/internal/rpt"
)

// Format identifies the kind of document an RPT's binary objects decode
// to.
type Format int

const (
	FormatNone Format = iota
	FormatPDF
	FormatAFP
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "PDF"
	case FormatAFP:
		return "AFP"
	default:
		return "NONE"
	}
}

// Payload is the materialized binary-object stream plus its detected
// format.
type Payload struct {
	Bytes  []byte
	Format Format
}

// Materialize decompresses and concatenates f's binary-object table (if
// any) and classifies the result. A file with no binary objects returns
// a Payload with Format == FormatNone and no error: this is the benign
// "no binary objects" case from spec.md §7, not a failure.
func Materialize(f *rpt.File) (*Payload, error) {
	if !f.HasBinaryObjects() {
		return &Payload{Format: FormatNone}, nil
	}

	data, err := f.DecompressBinaryObjects()
	if err != nil {
		return nil, err
	}

	return &Payload{Bytes: data, Format: sniff(data)}, nil
}

// sniff classifies raw bytes as PDF or AFP by magic. PDF files begin
// with "%PDF". AFP structured-field streams begin with the field
// introducer byte 0x5A followed by a 2-byte big-endian length that must
// be at least 8 (length + 3-byte id + 1-byte flag + 2 reserved bytes) and
// no larger than the buffer.
func sniff(data []byte) Format {
	if len(data) >= 4 && string(data[:4]) == "%PDF" {
		return FormatPDF
	}
	if len(data) >= 3 && data[0] == 0x5A {
		length := int(data[1])<<8 | int(data[2])
		if length >= 8 && length <= len(data) {
			return FormatAFP
		}
	}
	return FormatNone
}
