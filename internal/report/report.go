// Package report builds the final duplicate report from the aggregator's
// surviving fingerprints (§4.6) and renders it as JSON, text, or XML.
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/dupescan/internal/aggregate"
)

// BlockRecord is one occurrence of a duplicated fingerprint, as rendered
// in the output.
type BlockRecord struct {
	StartLine  int    `json:"start_line_number" xml:"start_line_number"`
	EndLine    int    `json:"end_line_number" xml:"end_line_number"`
	SourceFile string `json:"source_file" xml:"source_file"`
}

// DuplicateRecord is one surviving fingerprint and every place it occurs.
type DuplicateRecord struct {
	Fingerprint string        `json:"fingerprint" xml:"fingerprint"`
	LineCount   int           `json:"line_count" xml:"line_count"`
	Blocks      []BlockRecord `json:"blocks" xml:"blocks>block"`
}

// Summary aggregates scalar totals across every surviving record.
type Summary struct {
	DuplicateBlocks int `json:"duplicateBlocks" xml:"duplicateBlocks"`
	DuplicateLines  int `json:"duplicateLines" xml:"duplicateLines"`
	DuplicateFiles  int `json:"duplicateFiles" xml:"duplicateFiles"`
}

// Report is the top-level result value, matching spec.md §6's JSON
// schema exactly: {"summary": …, "records": […]}.
type Report struct {
	XMLName xml.Name          `json:"-" xml:"items"`
	Summary Summary           `json:"summary" xml:"summary"`
	Records []DuplicateRecord `json:"records" xml:"record"`
}

// Build converts the aggregator's survivors into a Report. Records are
// sorted by fingerprint and each record's blocks by (source_file,
// start_line) — aggregate.Index.Occurrences already returns blocks in
// that order, so Build only needs to sort the records themselves.
func Build(survivors []aggregate.Survivor) Report {
	files := make(map[string]bool)
	records := []DuplicateRecord{}
	duplicateBlocks, duplicateLines := 0, 0

	for _, s := range survivors {
		var blocks []BlockRecord
		lineCount := 0
		for i, occ := range s.Occurrences {
			span := occ.EndLine - occ.StartLine + 1
			if i == 0 {
				lineCount = span
			}
			duplicateLines += span
			files[occ.SourceFile] = true
			blocks = append(blocks, BlockRecord{
				StartLine:  occ.StartLine,
				EndLine:    occ.EndLine,
				SourceFile: occ.SourceFile,
			})
		}
		duplicateBlocks += len(s.Occurrences)
		records = append(records, DuplicateRecord{
			Fingerprint: s.Fingerprint,
			LineCount:   lineCount,
			Blocks:      blocks,
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Fingerprint < records[j].Fingerprint })

	return Report{
		Summary: Summary{
			DuplicateBlocks: duplicateBlocks,
			DuplicateLines:  duplicateLines,
			DuplicateFiles:  len(files),
		},
		Records: records,
	}
}

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatXML  Format = "xml"
)

// Render writes report to w in the given format. JSON output is
// validated against Schema before it is written, so a malformed report
// is caught here rather than handed to a downstream consumer.
func Render(w io.Writer, report Report, format Format) error {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := validate(data); err != nil {
			return fmt.Errorf("report failed schema validation: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err = w.Write([]byte("\n"))
		return err
	case FormatText:
		return renderText(w, report)
	case FormatXML:
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		_, err := w.Write([]byte("\n"))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderText(w io.Writer, report Report) error {
	if _, err := fmt.Fprintf(w, "summary: %d blocks, %d lines, %d files\n",
		report.Summary.DuplicateBlocks, report.Summary.DuplicateLines, report.Summary.DuplicateFiles); err != nil {
		return err
	}
	for _, r := range report.Records {
		if _, err := fmt.Fprintf(w, "%s line_count=%d blocks=%v\n", r.Fingerprint, r.LineCount, r.Blocks); err != nil {
			return err
		}
	}
	return nil
}

// Schema describes Report's JSON shape, self-documenting the output
// format the way an MCP server documents its tool input schemas
// with google/jsonschema-go (internal/mcp/server.go). It exists for
// tooling that wants to validate a dupescan JSON report programmatically
// rather than trusting the struct tags alone.
var Schema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"summary": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"duplicateBlocks": {Type: "integer", Description: "total occurrences across every surviving fingerprint"},
				"duplicateLines":  {Type: "integer", Description: "sum of line spans across every occurrence"},
				"duplicateFiles":  {Type: "integer", Description: "distinct source files touched by any duplicate"},
			},
		},
		"records": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"fingerprint": {Type: "string", Description: "64-hex-character SHA-256 digest, or \"blank_ast\""},
					"line_count":  {Type: "integer", Description: "line span of the first occurrence"},
					"blocks": {
						Type: "array",
						Items: &jsonschema.Schema{
							Type: "object",
							Properties: map[string]*jsonschema.Schema{
								"start_line_number": {Type: "integer"},
								"end_line_number":   {Type: "integer"},
								"source_file":       {Type: "string"},
							},
						},
					},
				},
			},
		},
	},
}

var resolvedSchema = mustResolveSchema()

func mustResolveSchema() *jsonschema.Resolved {
	r, err := Schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("report: Schema does not resolve: %v", err))
	}
	return r
}

// validate unmarshals a JSON report and checks it against Schema.
func validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return resolvedSchema.Validate(v)
}
