// Package cliargs parses the rptx command line (spec.md §6): the legacy
// positional form, the output-keyword DSL, the Export shorthand, and
// watermark flags, into a typed Invocation. It performs no file I/O —
// whether the input path turns out to be a file or a batch directory is
// decided by the caller once the filesystem is consulted.
package cliargs

import (
	"strconv"
	"strings"

	"github.com/isis-papyrus/rptx/internal/rptxerr"
	"github.com/isis-papyrus/rptx/internal/watermark"
)

// OutputKeyword is one of the five output-artifact keywords spec.md §6
// recognizes.
type OutputKeyword string

const (
	OutputTXT OutputKeyword = "TXT"
	OutputPDF OutputKeyword = "PDF"
	OutputAFP OutputKeyword = "AFP"
	OutputBIN OutputKeyword = "BIN"
	OutputCSV OutputKeyword = "CSV"
)

// OutputRequest is one requested artifact, with an optional explicit
// path overriding the OUTPUTFOLDER/<stem>.<ext> default.
type OutputRequest struct {
	Keyword OutputKeyword
	Path    string // empty means "use the default path"
}

// Invocation is the fully parsed, validated CLI state for one run.
type Invocation struct {
	InputPath     string
	SelectionExpr string
	IsExport      bool

	// Legacy positional form: <input> <selection> <out_txt> <out_bin>.
	Legacy       bool
	LegacyTxt    string
	LegacyBinary string

	Outputs      []OutputRequest
	OutputFolder string // empty means the spec.md §4.7 default

	Watermark    watermark.Spec
	HasWatermark bool
}

var outputKeywords = map[string]OutputKeyword{
	"txt": OutputTXT,
	"pdf": OutputPDF,
	"afp": OutputAFP,
	"bin": OutputBIN,
	"csv": OutputCSV,
}

var watermarkFlags = map[string]bool{
	"watermarkimage":      true,
	"watermarkposition":   true,
	"watermarkrotation":   true,
	"watermarkopacity":    true,
	"watermarkscale":      true,
	"watermarkapplytoafp": true,
}

// Parse decodes args (not including the program name) into an
// Invocation.
func Parse(args []string) (*Invocation, error) {
	if len(args) < 1 {
		return nil, rptxerr.New(rptxerr.CodeInvalidArguments, "missing input path")
	}

	inv := &Invocation{
		InputPath: args[0],
		Watermark: watermark.DefaultSpec(""),
	}

	rest := args[1:]
	if len(rest) == 0 {
		return nil, rptxerr.New(rptxerr.CodeInvalidArguments, "missing selection expression or Export keyword")
	}

	if strings.EqualFold(rest[0], "export") {
		inv.IsExport = true
		inv.SelectionExpr = "all"
		rest = rest[1:]
	} else {
		inv.SelectionExpr = rest[0]
		rest = rest[1:]
	}

	if isLegacyPositionalPair(rest) {
		inv.Legacy = true
		inv.LegacyTxt = rest[0]
		inv.LegacyBinary = rest[1]
		return inv, nil
	}

	if err := parseKeywordArgs(inv, rest); err != nil {
		return nil, err
	}
	return inv, nil
}

// isLegacyPositionalPair reports whether rest is exactly two bare paths,
// neither of which is a recognized keyword (spec.md §4.7: "Legacy
// positional form ... is accepted when exactly two path arguments follow
// the selection").
func isLegacyPositionalPair(rest []string) bool {
	if len(rest) != 2 {
		return false
	}
	for _, a := range rest {
		if isKnownKeyword(a) {
			return false
		}
	}
	return true
}

func isKnownKeyword(token string) bool {
	key := normalizeFlag(token)
	if _, ok := outputKeywords[key]; ok {
		return true
	}
	if key == "outputfolder" {
		return true
	}
	return watermarkFlags[key]
}

// normalizeFlag lowercases token and strips an optional leading "--",
// per spec.md §6: "`--` prefix optional on watermark flags".
func normalizeFlag(token string) string {
	t := strings.TrimPrefix(token, "--")
	return strings.ToLower(t)
}

func parseKeywordArgs(inv *Invocation, rest []string) error {
	for i := 0; i < len(rest); i++ {
		key := normalizeFlag(rest[i])

		if kw, ok := outputKeywords[key]; ok {
			req := OutputRequest{Keyword: kw}
			if i+1 < len(rest) && !isKnownKeyword(rest[i+1]) {
				req.Path = rest[i+1]
				i++
			}
			inv.Outputs = append(inv.Outputs, req)
			continue
		}

		switch key {
		case "outputfolder":
			path, err := requireNext(rest, i, "OUTPUTFOLDER")
			if err != nil {
				return err
			}
			inv.OutputFolder = path
			i++
		case "watermarkimage":
			path, err := requireNext(rest, i, "WatermarkImage")
			if err != nil {
				return err
			}
			inv.Watermark.ImagePath = path
			inv.HasWatermark = true
			i++
		case "watermarkposition":
			val, err := requireNext(rest, i, "WatermarkPosition")
			if err != nil {
				return err
			}
			pos, err := watermark.ParsePosition(val)
			if err != nil {
				return err
			}
			inv.Watermark.Position = pos
			i++
		case "watermarkrotation":
			val, err := requireNext(rest, i, "WatermarkRotation")
			if err != nil {
				return err
			}
			f, perr := strconv.ParseFloat(val, 64)
			if perr != nil {
				return rptxerr.Wrap(rptxerr.CodeInvalidArguments, "invalid WatermarkRotation value", perr).
					WithContext("value", val)
			}
			inv.Watermark.Rotation = f
			i++
		case "watermarkopacity":
			val, err := requireNext(rest, i, "WatermarkOpacity")
			if err != nil {
				return err
			}
			f, perr := strconv.ParseFloat(val, 64)
			if perr != nil {
				return rptxerr.Wrap(rptxerr.CodeInvalidArguments, "invalid WatermarkOpacity value", perr).
					WithContext("value", val)
			}
			inv.Watermark.Opacity = f
			i++
		case "watermarkscale":
			val, err := requireNext(rest, i, "WatermarkScale")
			if err != nil {
				return err
			}
			f, perr := strconv.ParseFloat(val, 64)
			if perr != nil {
				return rptxerr.Wrap(rptxerr.CodeInvalidArguments, "invalid WatermarkScale value", perr).
					WithContext("value", val)
			}
			inv.Watermark.Scale = f
			i++
		case "watermarkapplytoafp":
			val, err := requireNext(rest, i, "WatermarkApplyToAFP")
			if err != nil {
				return err
			}
			b, perr := strconv.ParseBool(val)
			if perr != nil {
				return rptxerr.Wrap(rptxerr.CodeInvalidArguments, "invalid WatermarkApplyToAFP value", perr).
					WithContext("value", val)
			}
			inv.Watermark.ApplyToAFP = b
			i++
		default:
			return rptxerr.New(rptxerr.CodeInvalidArguments, "unrecognized argument").
				WithContext("argument", rest[i])
		}
	}

	if inv.HasWatermark {
		if err := inv.Watermark.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func requireNext(rest []string, i int, flag string) (string, error) {
	if i+1 >= len(rest) {
		return "", rptxerr.New(rptxerr.CodeInvalidArguments, "missing value for flag").
			WithContext("flag", flag)
	}
	return rest[i+1], nil
}
