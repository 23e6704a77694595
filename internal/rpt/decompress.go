package rpt

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Decompress inflates the compressed bytes located by d within raw,
// using the RFC 1950 zlib wrapper, and verifies the result matches
// d.UncompressedSize exactly. Decompression is bounded to
// MaxDecompressedObjectSize to cap zip-bomb amplification.
func Decompress(raw []byte, d Descriptor) ([]byte, error) {
	start := d.AbsoluteOffset()
	end := start + int64(d.CompressedSize)
	if start < 0 || end > int64(len(raw)) {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "descriptor bytes exceed buffer size")
	}
	compressed := raw[start:end]

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeDecompressionError, "invalid zlib stream", err)
	}
	defer zr.Close()

	limit := int64(d.UncompressedSize)
	if limit > MaxDecompressedObjectSize {
		return nil, rptxerr.New(rptxerr.CodeMemoryError, "declared uncompressed size exceeds the per-object cap").
			WithContext("declared_size", d.UncompressedSize).
			WithContext("cap", MaxDecompressedObjectSize)
	}

	// Read bounded to limit+1 so an over-long stream is detected instead
	// of silently truncated.
	lr := io.LimitReader(zr, limit+1)
	out, err := io.ReadAll(lr)
	if err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeDecompressionError, "zlib decompression failed", err)
	}

	if int64(len(out)) != limit {
		return nil, rptxerr.New(rptxerr.CodeDecompressionError, "decompressed length does not match uncompressed_size").
			WithContext("expected", limit).
			WithContext("actual", len(out))
	}

	return out, nil
}
