package pdfslice

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

var reAnyRef = regexp.MustCompile(`(\d+)\s+(\d+)\s+R`)

// Slice builds a new, standalone PDF containing only the pages at the
// given 1-based indices into the document's flattened page list, in the
// order given. It performs a true transitive deep copy of every object
// reachable from each selected page — the teacher's ExtractPages
// (core/manipulate/extraction.go) copies only the page object itself and
// leaves a "TODO: Copy page dependencies" where /Parent is rewritten; a
// page whose /Resources, fonts, images, or content streams lived only in
// objects the page referenced (rather than the page dict itself) would
// come out broken. This closes that gap.
func Slice(doc *Document, pageIndices []int) ([]byte, error) {
	leaves, err := FlattenPages(doc)
	if err != nil {
		return nil, err
	}
	for _, idx := range pageIndices {
		if idx < 1 || idx > len(leaves) {
			return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "page index out of range").
				WithContext("index", idx).WithContext("pageCount", len(leaves))
		}
	}

	nextObj := maxObjNum(doc) + 1
	pagesObj := nextObj
	nextObj++
	catalogObj := nextObj
	nextObj++
	infoObj := nextObj
	nextObj++

	final := map[int][]byte{}
	var kidRefs []string

	for _, idx := range pageIndices {
		leaf := leaves[idx-1]
		pageDict := rewritePageDict(leaf, pagesObj)
		final[leaf.ObjNum] = pageDict
		kidRefs = append(kidRefs, fmt.Sprintf("%d 0 R", leaf.ObjNum))
		collectReachable(doc, pageDict, final)
	}

	pagesDict := []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", joinRefs(kidRefs), len(kidRefs)))
	final[pagesObj] = pagesDict

	catalogDict := []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))
	final[catalogObj] = catalogDict

	infoDict := []byte("<< /Creator (Papyrus Content Governance) /Producer (ISIS Papyrus) >>")
	final[infoObj] = infoDict

	return writePDF(final, catalogObj, infoObj)
}

func rewritePageDict(leaf PageNode, newParent int) []byte {
	d := leaf.Dict
	d = setDictValue(d, "Type", "/Page")
	d = setDictValue(d, "Parent", fmt.Sprintf("%d 0 R", newParent))
	if leaf.Resources != "" {
		d = setDictValue(d, "Resources", leaf.Resources)
	}
	if leaf.MediaBox != "" {
		d = setDictValue(d, "MediaBox", leaf.MediaBox)
	}
	if leaf.CropBox != "" {
		d = setDictValue(d, "CropBox", leaf.CropBox)
	}
	if leaf.Rotate != "" {
		d = setDictValue(d, "Rotate", leaf.Rotate)
	}
	return d
}

// collectReachable walks every indirect reference in body, and
// transitively in every object it pulls in, copying each referenced
// object's raw bytes (dict and, where present, inline stream data) into
// out exactly once.
func collectReachable(doc *Document, body []byte, out map[int][]byte) {
	queue := refsIn(body)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, done := out[n]; done {
			continue
		}
		objBody, ok := doc.Object(n)
		if !ok {
			continue
		}
		out[n] = objBody
		queue = append(queue, refsIn(objBody)...)
	}
}

func refsIn(body []byte) []int {
	matches := reAnyRef.FindAllSubmatch(body, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func maxObjNum(doc *Document) int {
	max := 0
	for n := range doc.objects {
		if n > max {
			max = n
		}
	}
	return max
}

func joinRefs(refs []string) string {
	out := ""
	for i, r := range refs {
		if i > 0 {
			out += " "
		}
		out += r
	}
	return out
}

// sortedObjNums returns the keys of objs in ascending order, for
// deterministic, reproducible output byte-for-byte across runs.
func sortedObjNums(objs map[int][]byte) []int {
	nums := make([]int, 0, len(objs))
	for n := range objs {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
