// Package outputrouter interprets the rptx output-keyword DSL (spec.md
// §4.7): it decides which concrete artifacts a parsed Invocation asks
// for, resolves each to a file path under the output folder, and writes
// bytes to disk atomically (temp file in the destination directory,
// renamed into place on success — spec.md §5).
package outputrouter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/isis-papyrus/rptx/internal/cliargs"
	"github.com/isis-papyrus/rptx/internal/payload"
	"github.com/isis-papyrus/rptx/internal/rpt"
	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// ResolvedOutput is one concrete artifact to write: the keyword that
// requested it and the file path it resolves to.
type ResolvedOutput struct {
	Keyword cliargs.OutputKeyword
	Path    string
}

// ExportDefaults is the output list the bare "Export" keyword expands
// to when the invocation carries no explicit output keywords (spec.md
// §4.7: "equivalent to selection all plus defaults {TXT, AFP-or-PDF,
// CSV}"). Both PDF and AFP are listed; Resolve below drops
// whichever one does not match the detected payload format.
var ExportDefaults = []cliargs.OutputRequest{
	{Keyword: cliargs.OutputTXT},
	{Keyword: cliargs.OutputPDF},
	{Keyword: cliargs.OutputAFP},
	{Keyword: cliargs.OutputCSV},
}

// RequestedOutputs returns the effective list of output requests for
// inv: its explicit Outputs if any, the legacy TXT+BIN pair if
// inv.Legacy, or ExportDefaults if inv.IsExport and nothing else was
// specified.
func RequestedOutputs(inv *cliargs.Invocation) []cliargs.OutputRequest {
	if inv.Legacy {
		return []cliargs.OutputRequest{
			{Keyword: cliargs.OutputTXT, Path: inv.LegacyTxt},
			{Keyword: cliargs.OutputBIN, Path: inv.LegacyBinary},
		}
	}
	if len(inv.Outputs) > 0 {
		return inv.Outputs
	}
	if inv.IsExport {
		return ExportDefaults
	}
	return nil
}

// Resolve applies the PDF/AFP precedence rule and path defaulting
// (spec.md §4.7) to requests, given the RPT's input path, the chosen
// output folder, and the detected binary payload format. It returns the
// TXT/CSV outputs (always eligible) and at most one binary output
// (whichever PDF/AFP/BIN request matches the detected format), plus a
// note if a binary artifact was requested but none could be produced.
func Resolve(requests []cliargs.OutputRequest, inputPath, outputFolder string, format payload.Format) (outputs []ResolvedOutput, note string) {
	stem := Stem(inputPath)
	var binaryCandidate *cliargs.OutputRequest
	requestedBinary := false

	for _, req := range requests {
		switch req.Keyword {
		case cliargs.OutputTXT:
			outputs = append(outputs, ResolvedOutput{Keyword: req.Keyword, Path: resolvePath(req.Path, outputFolder, stem, "txt")})
		case cliargs.OutputCSV:
			outputs = append(outputs, ResolvedOutput{Keyword: req.Keyword, Path: resolvePath(req.Path, outputFolder, stem, "csv")})
		case cliargs.OutputPDF:
			requestedBinary = true
			if format == payload.FormatPDF {
				r := req
				binaryCandidate = &r
			}
		case cliargs.OutputAFP:
			requestedBinary = true
			if format == payload.FormatAFP {
				r := req
				binaryCandidate = &r
			}
		case cliargs.OutputBIN:
			requestedBinary = true
			if format != payload.FormatNone && binaryCandidate == nil {
				r := req
				binaryCandidate = &r
			}
		}
	}

	if binaryCandidate != nil {
		ext := strings.ToLower(format.String())
		outputs = append(outputs, ResolvedOutput{
			Keyword: binaryCandidate.Keyword,
			Path:    resolvePath(binaryCandidate.Path, outputFolder, stem, ext),
		})
	} else if requestedBinary {
		if format == payload.FormatNone {
			note = "no binary objects in file; binary output skipped"
		} else {
			note = "requested binary format does not match the detected payload; binary output skipped"
		}
	}

	return outputs, note
}

func resolvePath(explicit, outputFolder, stem, ext string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(outputFolder, stem+"."+ext)
}

// Stem returns the input file name without its extension, e.g.
// "260271Q7" for "/data/260271Q7.RPT".
func Stem(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultOutputFolder is "<rpt_parent>/EXPORT/" (spec.md §4.7), used
// whenever the invocation does not set OUTPUTFOLDER explicitly.
func DefaultOutputFolder(inputPath string) string {
	return filepath.Join(filepath.Dir(inputPath), "EXPORT")
}

// WriteAtomic writes data to path, creating parent directories as
// needed, via a temp file in the destination directory that is renamed
// into place only once the write succeeds (spec.md §5: "Callers should
// write to a temporary path and rename on success").
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to create output directory", err).
			WithContext("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, ".rptx-tmp-*")
	if err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to create temp file", err).
			WithContext("dir", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to write output", err).
			WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to close temp file", err).
			WithContext("path", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to finalize output file", err).
			WithContext("path", path)
	}
	return nil
}

// WriteCSV writes the section-boundary CSV (spec.md §6: "header
// SPECIES_ID,SECTION_ID,START_PAGE,PAGES; one row per section of the
// source RPT, not filtered by selection") atomically to path.
func WriteCSV(speciesID string, sections []rpt.Section, path string) error {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"SPECIES_ID", "SECTION_ID", "START_PAGE", "PAGES"}); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to write CSV header", err)
	}
	for _, s := range sections {
		row := []string{
			speciesID,
			strconv.Itoa(s.SectionID),
			strconv.Itoa(s.StartPage),
			strconv.Itoa(s.PageCount),
		}
		if err := w.Write(row); err != nil {
			return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to write CSV row", err).
				WithContext("section_id", s.SectionID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "CSV writer error", err)
	}
	return WriteAtomic(path, []byte(buf.String()))
}
