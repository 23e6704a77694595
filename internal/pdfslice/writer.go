package pdfslice

import (
	"bytes"
	"fmt"
)

// writePDF serializes objs into a complete, traditional-xref PDF file
// with catalogObj as /Root and infoObj as /Info.
//
// The teacher carries two independent writer implementations
// (core/write/writer.go and writer/content.go) that duplicate this xref
// and trailer bookkeeping against different object models. Freshly
// sliced output here is always unencrypted and never needs object
// streams or cross-reference streams, so this consolidates both into one
// writer against the pdfslice object map, following core/write/writer.go's
// offset-tracking approach.
func writePDF(objs map[int][]byte, catalogObj, infoObj int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	nums := sortedObjNums(objs)
	offsets := make(map[int]int, len(nums))

	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", n)
		buf.Write(bytes.TrimSpace(objs[n]))
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := buf.Len()
	maxObj := 0
	for _, n := range nums {
		if n > maxObj {
			maxObj = n
		}
	}

	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", maxObj+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= maxObj; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\n", maxObj+1, catalogObj, infoObj)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes(), nil
}
