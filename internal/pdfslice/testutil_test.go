package pdfslice

import "fmt"

// buildTestPDF constructs a minimal, valid multi-page PDF in memory for
// tests, mirroring the teacher's preference (core/manipulate/
// manipulation_test.go) for building fixtures with a small in-process
// builder rather than checked-in binary files.
//
// Object layout: 1 catalog, 2 pages-root (declares /Resources, inherited
// by every page), 3..3+n-1 page objects (one per page; the last page
// additionally declares its own /MediaBox, overriding the inherited
// one), 3+n content stream per page, 3+2n info dict.
func buildTestPDF(n int) []byte {
	objs := map[int][]byte{}
	pagesObj := 2
	firstPage := 3
	firstContent := firstPage + n

	var kids []string
	for i := 0; i < n; i++ {
		pageObj := firstPage + i
		contentObj := firstContent + i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))

		pageDict := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Contents %d 0 R", pagesObj, contentObj)
		if i == n-1 {
			pageDict += " /MediaBox [0 0 200 200]"
		}
		pageDict += " >>"
		objs[pageObj] = []byte(pageDict)

		text := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i+1)
		objs[contentObj] = []byte(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(text), text))
	}

	objs[1] = []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))
	objs[pagesObj] = []byte(fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /Resources << /Font << /F1 99 0 R >> >> /MediaBox [0 0 612 792] >>",
		joinRefs(kids), n))

	infoObj := firstContent + n
	objs[infoObj] = []byte("<< /Creator (test) >>")
	objs[99] = []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	out, _ := writePDF(objs, 1, infoObj)
	return out
}

// buildTestPDFIndirectResources is like buildTestPDF but declares the
// pages-root's /Resources as an indirect reference to a separate object
// rather than an inline dictionary — the inheritance path pages.go's
// extractBalancedOrScalar falls back to when a /Resources value isn't a
// literal "<< ... >>".
func buildTestPDFIndirectResources(n int) []byte {
	objs := map[int][]byte{}
	pagesObj := 2
	firstPage := 3
	firstContent := firstPage + n
	resourcesObj := 50

	var kids []string
	for i := 0; i < n; i++ {
		pageObj := firstPage + i
		contentObj := firstContent + i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))
		objs[pageObj] = []byte(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Contents %d 0 R >>", pagesObj, contentObj))
		text := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i+1)
		objs[contentObj] = []byte(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(text), text))
	}

	objs[1] = []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))
	objs[pagesObj] = []byte(fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /Resources %d 0 R /MediaBox [0 0 612 792] >>",
		joinRefs(kids), n, resourcesObj))
	objs[resourcesObj] = []byte("<< /Font << /F1 99 0 R >> >>")

	infoObj := firstContent + n
	objs[infoObj] = []byte("<< /Creator (test) >>")
	objs[99] = []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	out, _ := writePDF(objs, 1, infoObj)
	return out
}

// buildTestPDFWithExistingXObject declares /XObject and /ExtGState
// sub-dictionaries already present in the pages-root's /Resources, so
// merging a watermark's own entries must join those sub-dictionaries
// rather than append a second top-level /XObject or /ExtGState key.
func buildTestPDFWithExistingXObject(n int) []byte {
	objs := map[int][]byte{}
	pagesObj := 2
	firstPage := 3
	firstContent := firstPage + n

	var kids []string
	for i := 0; i < n; i++ {
		pageObj := firstPage + i
		contentObj := firstContent + i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))
		objs[pageObj] = []byte(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Contents %d 0 R >>", pagesObj, contentObj))
		text := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i+1)
		objs[contentObj] = []byte(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(text), text))
	}

	objs[1] = []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))
	objs[pagesObj] = []byte(fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /Resources << /Font << /F1 99 0 R >> /XObject << /ImLogo 77 0 R >> /ExtGState << /GSFaded 88 0 R >> >> /MediaBox [0 0 612 792] >>",
		joinRefs(kids), n))

	infoObj := firstContent + n
	objs[infoObj] = []byte("<< /Creator (test) >>")
	objs[99] = []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	objs[77] = []byte("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 1 >>\nstream\n\x01\nendstream")
	objs[88] = []byte("<< /Type /ExtGState /ca 0.5 >>")

	out, _ := writePDF(objs, 1, infoObj)
	return out
}
