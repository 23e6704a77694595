// Package batch implements the directory-scan batch driver (spec.md
// §4.8): it enumerates *.RPT files in a directory, consults and updates
// a progress journal so already-completed files are skipped on rerun,
// and invokes the single-file pipeline per entry.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/isis-papyrus/rptx/internal/cliargs"
	"github.com/isis-papyrus/rptx/internal/pipeline"
	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

const journalName = "export_progress.txt"

// Summary totals one batch run, printed as the summary line spec.md §7
// requires.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Run enumerates *.RPT files (case-insensitive) in dir, sorted
// lexicographically, and runs the pipeline on every one not already
// recorded in the journal. Per-file failures are reported to stderr and
// do not stop the batch; the journal is only appended to after a file
// succeeds, so an interrupted run never marks a file done that wasn't
// finished.
func Run(dir string, template *cliargs.Invocation, stdout, stderr io.Writer) (*Summary, error) {
	outputFolder := template.OutputFolder
	if outputFolder == "" {
		outputFolder = filepath.Join(dir, "EXPORT")
	}
	journalPath := filepath.Join(outputFolder, journalName)

	done, err := loadJournal(journalPath)
	if err != nil {
		return nil, err
	}

	names, err := listRptFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var lastErr error

	for _, name := range names {
		if done[name] {
			summary.Skipped++
			continue
		}

		fileInv := *template
		fileInv.InputPath = filepath.Join(dir, name)
		fileInv.OutputFolder = outputFolder

		result, err := pipeline.Run(&fileInv)
		if err != nil {
			lastErr = err
			fmt.Fprintf(stderr, "ERROR: %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := appendJournal(journalPath, name); err != nil {
			lastErr = err
			fmt.Fprintf(stderr, "ERROR: %s: failed to update progress journal: %v\n", name, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(stdout, "SUCCESS: %s: extracted %d pages\n", name, result.PagesSelected)
		for _, note := range result.Notes {
			fmt.Fprintf(stdout, "NOTE: %s: %s\n", name, note)
		}
		summary.Processed++
	}

	fmt.Fprintf(stdout, "Batch complete: %d processed, %d skipped (already completed), %d failed\n",
		summary.Processed, summary.Skipped, summary.Failed)

	if summary.Processed > 0 || summary.Failed == 0 {
		return summary, nil
	}
	return summary, lastErr
}

// listRptFiles returns every *.RPT file (case-insensitive) directly
// inside dir, sorted lexicographically.
func listRptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeReadError, "failed to read batch directory", err).
			WithContext("dir", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".rpt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// loadJournal reads the set of already-completed file basenames.
// A missing journal means nothing has been completed yet.
func loadJournal(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, rptxerr.Wrap(rptxerr.CodeReadError, "failed to read progress journal", err).
			WithContext("path", path)
	}
	defer f.Close()

	done := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			done[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeReadError, "failed to scan progress journal", err).
			WithContext("path", path)
	}
	return done, nil
}

// appendJournal records name as completed, creating the journal (and
// its parent directory) if needed, and flushing before returning so a
// crash immediately afterward cannot lose the record.
func appendJournal(path, name string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to create output folder for journal", err).
			WithContext("dir", filepath.Dir(path))
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to open progress journal", err).
			WithContext("path", path)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, name); err != nil {
		return rptxerr.Wrap(rptxerr.CodeWriteError, "failed to append to progress journal", err).
			WithContext("path", path)
	}
	return f.Sync()
}
