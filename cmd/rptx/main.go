// Command rptx extracts selected pages and embedded binary content from
// Papyrus RPT spool files (spec.md), emitting TXT, PDF, AFP, BIN, and CSV
// artifacts with optional PDF watermarking.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/isis-papyrus/rptx/internal/batch"
	"github.com/isis-papyrus/rptx/internal/cliargs"
	"github.com/isis-papyrus/rptx/internal/pipeline"
	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

// version is the module's build version, printed by the -version/version
// informational subcommand. Bumped by hand until the project grows a real
// release process.
const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if len(args) == 1 && (args[0] == "-version" || args[0] == "version") {
		fmt.Fprintf(stdout, "rptx version %s\n", version)
		return 0
	}

	logger := log.New(stderr, "[rptx] ", log.LstdFlags)

	inv, err := cliargs.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return rptxerr.ExitCode(err)
	}

	info, statErr := os.Stat(inv.InputPath)
	if statErr != nil {
		wrapped := rptxerr.Wrap(rptxerr.CodeFileNotFound, "input path not found", statErr).
			WithContext("path", inv.InputPath)
		fmt.Fprintf(stderr, "ERROR: %v\n", wrapped)
		return rptxerr.ExitCode(wrapped)
	}

	if info.IsDir() {
		if !inv.IsExport {
			err := rptxerr.New(rptxerr.CodeInvalidArguments, "directory input requires the Export keyword")
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return rptxerr.ExitCode(err)
		}
		logger.Printf("batch export starting: %s", inv.InputPath)
		summary, err := batch.Run(inv.InputPath, inv, stdout, stderr)
		if err != nil {
			logger.Printf("batch export failed: %v", err)
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return rptxerr.ExitCode(err)
		}
		logger.Printf("batch export done: %d processed, %d skipped, %d failed", summary.Processed, summary.Skipped, summary.Failed)
		return 0
	}

	logger.Printf("processing %s", inv.InputPath)
	result, err := pipeline.Run(inv)
	if err != nil {
		logger.Printf("failed: %v", err)
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return rptxerr.ExitCode(err)
	}

	fmt.Fprintf(stdout, "SUCCESS: Extracted %d pages\n", result.PagesSelected)
	for _, a := range result.Artifacts {
		fmt.Fprintf(stdout, "  %s: %s\n", a.Format, a.Path)
	}
	for _, note := range result.Notes {
		fmt.Fprintf(stdout, "NOTE: %s\n", note)
	}
	logger.Printf("done: %d pages, %d artifacts", result.PagesSelected, len(result.Artifacts))
	return 0
}
