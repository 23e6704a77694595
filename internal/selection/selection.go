// Package selection parses the RPT page/section selection grammar and
// intersects it with a file's known page/section universe to produce a
// sorted, deduplicated list of 1-based page indices.
//
// Grammar (case-insensitive, whitespace-trimmed):
//
//	selection := "all" | "" | page_list | "pages:" page_list | "sections:" id_list | id_list
//	page_list := page_elem ("," page_elem)*
//	page_elem := integer | integer "-" integer
//	id_list   := integer ("," integer)*
package selection

import (
	"sort"
	"strconv"
	"strings"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// Universe describes the file a selection expression is evaluated
// against: how many pages it has, and the page range each section ID
// maps to.
type Universe struct {
	PageCount int
	// SectionPages maps a section ID to its (startPage, pageCount).
	SectionPages map[int]SectionRange
}

// SectionRange is the 1-based page span of a section.
type SectionRange struct {
	StartPage int
	PageCount int
}

// Evaluate parses expr and resolves it against u, returning a sorted,
// deduplicated list of 1-based page indices.
func Evaluate(expr string, u Universe) ([]int, error) {
	expr = strings.TrimSpace(expr)
	lower := strings.ToLower(expr)

	var pages []int
	var err error

	switch {
	case lower == "" || lower == "all":
		pages = allPages(u.PageCount)
	case strings.HasPrefix(lower, "pages:"):
		pages, err = parsePageList(expr[len("pages:"):], u.PageCount)
	case strings.HasPrefix(lower, "sections:"):
		pages, err = parseSectionList(expr[len("sections:"):], u)
	default:
		// A plain integer/range list is interpreted as pages, never
		// sections (disambiguation rule in spec.md §4.3).
		pages, err = parsePageList(expr, u.PageCount)
	}
	if err != nil {
		return nil, err
	}

	pages = dedupeSorted(pages)
	if len(pages) == 0 {
		return nil, rptxerr.New(rptxerr.CodeNoPagesSelected, "selection matched no pages")
	}
	return pages, nil
}

func allPages(count int) []int {
	pages := make([]int, count)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

func parsePageList(s string, pageCount int) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "empty page list")
	}

	var pages []int
	for _, elem := range strings.Split(s, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}
		if strings.Contains(elem, "-") {
			parts := strings.SplitN(elem, "-", 2)
			a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
			b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
			if errA != nil || errB != nil {
				return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "invalid page range").
					WithContext("range", elem)
			}
			if a > b {
				return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "range start exceeds range end").
					WithContext("range", elem)
			}
			for p := a; p <= b; p++ {
				if err := validatePage(p, pageCount); err != nil {
					return nil, err
				}
				pages = append(pages, p)
			}
			continue
		}

		p, err := strconv.Atoi(elem)
		if err != nil {
			return nil, rptxerr.Wrap(rptxerr.CodeInvalidSelection, "invalid page number", err).
				WithContext("value", elem)
		}
		if err := validatePage(p, pageCount); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func validatePage(p, pageCount int) error {
	if p < 1 || p > pageCount {
		return rptxerr.New(rptxerr.CodeInvalidSelection, "page out of range").
			WithContext("page", p).
			WithContext("page_count", pageCount)
	}
	return nil
}

func parseSectionList(s string, u Universe) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "empty section list")
	}

	var pages []int
	for _, elem := range strings.Split(s, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}
		id, err := strconv.Atoi(elem)
		if err != nil {
			return nil, rptxerr.Wrap(rptxerr.CodeInvalidSelection, "invalid section id", err).
				WithContext("value", elem)
		}
		rng, ok := u.SectionPages[id]
		if !ok {
			return nil, rptxerr.New(rptxerr.CodeInvalidSelection, "unknown section id").
				WithContext("section_id", id)
		}
		for p := rng.StartPage; p < rng.StartPage+rng.PageCount; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func dedupeSorted(pages []int) []int {
	if len(pages) == 0 {
		return nil
	}
	sort.Ints(pages)
	out := pages[:1]
	for _, p := range pages[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
