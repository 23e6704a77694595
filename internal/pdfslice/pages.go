package pdfslice

import (
	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// PageNode is a flattened leaf /Page object with every inheritable
// attribute ( /Resources, /MediaBox, /CropBox, /Rotate ) resolved down
// from its ancestor /Pages nodes, so it can be copied out of its
// original tree without losing context.
//
// The teacher's ExtractPages (core/manipulate/extraction.go) copies only
// the page object itself and leaves a "TODO: Copy page dependencies"
// where it rewrites /Parent; any inherited attribute the page itself
// didn't declare is silently lost once the parent is gone. Flattening
// before slicing removes that defect entirely.
type PageNode struct {
	ObjNum    int
	Dict      []byte
	Resources string
	MediaBox  string
	CropBox   string
	Rotate    string
}

var inheritableKeys = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// FlattenPages walks the document's page tree from its catalog's /Pages
// root and returns every leaf page in document order with inherited
// attributes resolved.
func FlattenPages(doc *Document) ([]PageNode, error) {
	catalogDict, ok := doc.Object(doc.root)
	if !ok {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "catalog object body missing")
	}
	pagesRefStr, ok := extractDictValue(catalogDict, "Pages")
	if !ok {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "catalog has no /Pages entry")
	}
	pagesRoot, ok := parseSingleRef(pagesRefStr)
	if !ok {
		return nil, rptxerr.New(rptxerr.CodeInvalidRpt, "catalog /Pages is not an indirect reference")
	}

	var leaves []PageNode
	inherited := map[string]string{}
	visited := map[int]bool{}
	if err := walkPagesNode(doc, pagesRoot, inherited, visited, &leaves); err != nil {
		return nil, err
	}
	return leaves, nil
}

func walkPagesNode(doc *Document, objNum int, inherited map[string]string, visited map[int]bool, leaves *[]PageNode) error {
	if visited[objNum] {
		return rptxerr.New(rptxerr.CodeInvalidRpt, "cyclic page tree").WithContext("object", objNum)
	}
	visited[objNum] = true

	dict, ok := doc.Object(objNum)
	if !ok {
		return rptxerr.New(rptxerr.CodeInvalidRpt, "page tree references missing object").WithContext("object", objNum)
	}

	nodeType, _ := extractDictValue(dict, "Type")
	here := map[string]string{}
	for k, v := range inherited {
		here[k] = v
	}
	for _, key := range inheritableKeys {
		if v, ok := extractBalancedOrScalar(dict, key); ok {
			here[key] = v
		}
	}

	if nodeType == "/Pages" {
		kidsRaw, ok := extractBalanced(dict, "Kids")
		if !ok {
			return rptxerr.New(rptxerr.CodeInvalidRpt, "/Pages node missing /Kids").WithContext("object", objNum)
		}
		for _, kid := range parseRefList(kidsRaw) {
			if err := walkPagesNode(doc, kid, here, visited, leaves); err != nil {
				return err
			}
		}
		return nil
	}

	// Leaf /Page (or untyped node treated as a page, which some
	// generators omit /Type on).
	*leaves = append(*leaves, PageNode{
		ObjNum:    objNum,
		Dict:      dict,
		Resources: here["Resources"],
		MediaBox:  here["MediaBox"],
		CropBox:   here["CropBox"],
		Rotate:    here["Rotate"],
	})
	return nil
}

func extractBalancedOrScalar(dict []byte, key string) (string, bool) {
	if v, ok := extractBalanced(dict, key); ok {
		return v, ok
	}
	return extractDictValue(dict, key)
}
