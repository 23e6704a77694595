// Package pipeline wires selection, materialization, format-specific
// slicing, watermarking, and output routing into the single-file
// extraction pipeline (spec.md §2's "pipeline" is this package); both
// the single-file CLI path and the batch driver call Run for one RPT
// file.
package pipeline

import (
	"bytes"
	"os"

	"github.com/isis-papyrus/rptx/internal/afpslice"
	"github.com/isis-papyrus/rptx/internal/cliargs"
	"github.com/isis-papyrus/rptx/internal/outputrouter"
	"github.com/isis-papyrus/rptx/internal/payload"
	"github.com/isis-papyrus/rptx/internal/pdfslice"
	"github.com/isis-papyrus/rptx/internal/rpt"
	"github.com/isis-papyrus/rptx/internal/rptxerr"
	"github.com/isis-papyrus/rptx/internal/selection"
	"github.com/isis-papyrus/rptx/internal/watermark"
)

// Artifact is one file this run actually wrote.
type Artifact struct {
	Keyword cliargs.OutputKeyword
	Path    string
	Format  string // "TXT", "PDF", "AFP", "CSV"
}

// Result is the per-file outcome SPEC_FULL.md §3 calls RunResult: how many
// pages were selected, every artifact written, and any informational
// notes (e.g. "no binary objects in file").
type Result struct {
	PagesSelected int
	Artifacts     []Artifact
	Notes         []string
}

// Run executes the full pipeline for one RPT file described by inv.
func Run(inv *cliargs.Invocation) (*Result, error) {
	raw, err := os.ReadFile(inv.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rptxerr.Wrap(rptxerr.CodeFileNotFound, "input file not found", err).
				WithContext("path", inv.InputPath)
		}
		return nil, rptxerr.Wrap(rptxerr.CodeReadError, "failed to read input file", err).
			WithContext("path", inv.InputPath)
	}

	file, err := rpt.Parse(raw)
	if err != nil {
		return nil, err
	}

	universe := selection.Universe{
		PageCount:    len(file.Pages),
		SectionPages: sectionRanges(file.Sections),
	}
	pages, err := selection.Evaluate(inv.SelectionExpr, universe)
	if err != nil {
		return nil, err
	}

	pl, err := payload.Materialize(file)
	if err != nil {
		return nil, err
	}

	outputFolder := inv.OutputFolder
	if outputFolder == "" {
		outputFolder = outputrouter.DefaultOutputFolder(inv.InputPath)
	}

	requests := outputrouter.RequestedOutputs(inv)
	if len(requests) == 0 {
		return nil, rptxerr.New(rptxerr.CodeInvalidArguments, "no output artifacts requested")
	}
	resolved, note := outputrouter.Resolve(requests, inv.InputPath, outputFolder, pl.Format)

	result := &Result{PagesSelected: len(pages)}
	if note != "" {
		result.Notes = append(result.Notes, note)
	}

	if inv.HasWatermark && pl.Format == payload.FormatAFP {
		if !inv.Watermark.ApplyToAFP {
			result.Notes = append(result.Notes, "watermark requested but payload is AFP; skipped (enable WatermarkApplyToAFP to silence this note)")
		}
	}

	for _, out := range resolved {
		switch out.Keyword {
		case cliargs.OutputTXT:
			data, err := buildText(file, pages)
			if err != nil {
				return nil, err
			}
			if err := outputrouter.WriteAtomic(out.Path, data); err != nil {
				return nil, err
			}
			result.Artifacts = append(result.Artifacts, Artifact{out.Keyword, out.Path, "TXT"})

		case cliargs.OutputCSV:
			if err := outputrouter.WriteCSV(file.Header.SpeciesID, file.Sections, out.Path); err != nil {
				return nil, err
			}
			result.Artifacts = append(result.Artifacts, Artifact{out.Keyword, out.Path, "CSV"})

		case cliargs.OutputPDF, cliargs.OutputAFP, cliargs.OutputBIN:
			data, err := sliceBinary(pl, pages, inv)
			if err != nil {
				return nil, err
			}
			if err := outputrouter.WriteAtomic(out.Path, data); err != nil {
				return nil, err
			}
			result.Artifacts = append(result.Artifacts, Artifact{out.Keyword, out.Path, pl.Format.String()})
		}
	}

	return result, nil
}

// buildText concatenates the decompressed text of each selected page,
// separated by 0x0C, with no trailing separator (spec.md §6).
func buildText(file *rpt.File, pages []int) ([]byte, error) {
	var buf bytes.Buffer
	for i, p := range pages {
		text, err := file.PageText(p)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(0x0C)
		}
		buf.Write(text)
	}
	return buf.Bytes(), nil
}

// sliceBinary produces the selected-page subset of the embedded PDF or
// AFP document, watermarking PDF output when requested (spec.md §4.6:
// "applied AFTER page slicing so that only emitted pages are stamped").
func sliceBinary(pl *payload.Payload, pages []int, inv *cliargs.Invocation) ([]byte, error) {
	switch pl.Format {
	case payload.FormatPDF:
		doc, err := pdfslice.Parse(pl.Bytes)
		if err != nil {
			return nil, err
		}
		sliced, err := pdfslice.Slice(doc, pages)
		if err != nil {
			return nil, err
		}
		if !inv.HasWatermark {
			return sliced, nil
		}
		return applyWatermark(sliced, inv.Watermark)

	case payload.FormatAFP:
		fields, err := afpslice.Parse(pl.Bytes)
		if err != nil {
			return nil, err
		}
		grouped, err := afpslice.GroupPages(fields)
		if err != nil {
			return nil, err
		}
		return afpslice.Slice(grouped, pages)

	default:
		return nil, rptxerr.New(rptxerr.CodeUnknownError, "no binary payload to slice")
	}
}

func applyWatermark(pdfBytes []byte, spec watermark.Spec) ([]byte, error) {
	raw, err := os.ReadFile(spec.ImagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rptxerr.Wrap(rptxerr.CodeFileNotFound, "watermark image not found", err).
				WithContext("path", spec.ImagePath)
		}
		return nil, rptxerr.Wrap(rptxerr.CodeReadError, "failed to read watermark image", err).
			WithContext("path", spec.ImagePath)
	}
	img, err := watermark.Decode(raw)
	if err != nil {
		return nil, err
	}
	doc, err := pdfslice.Parse(pdfBytes)
	if err != nil {
		return nil, err
	}
	return watermark.ApplyToPDF(doc, img, spec)
}

func sectionRanges(sections []rpt.Section) map[int]selection.SectionRange {
	out := make(map[int]selection.SectionRange, len(sections))
	for _, s := range sections {
		out[s.SectionID] = selection.SectionRange{StartPage: s.StartPage, PageCount: s.PageCount}
	}
	return out
}
