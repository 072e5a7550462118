// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phobologic/apislice/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a RunReport into TOON format.
func Encode(r *model.RunReport) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("run: %s", encodeValue(r.RunID)))
	parts = append(parts, fmt.Sprintf("input: %s", encodeValue(r.Input)))
	if !r.Started.IsZero() {
		parts = append(parts, fmt.Sprintf("started: %s", encodeValue(r.Started.UTC().Format(time.RFC3339))))
	}
	parts = append(parts, fmt.Sprintf("elapsed: %s", encodeValue(formatDuration(r.Elapsed))))
	parts = append(parts, fmt.Sprintf("skipped: %d", r.Skipped))

	var totalRows [][]string
	for _, o := range model.Outcomes {
		totalRows = append(totalRows, []string{string(o), strconv.Itoa(r.Count(o))})
	}
	parts = append(parts, formatTabular("totals", []string{"outcome", "files"}, totalRows))

	var fileRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		fileRows = append(fileRows, []string{
			f.Identity,
			string(f.Outcome),
			strconv.Itoa(f.Slices),
			strconv.Itoa(f.Fallbacks),
			strconv.Itoa(f.Diagnostics),
			f.Reason,
			formatDuration(f.Duration),
		})
	}
	parts = append(parts, formatTabular("files",
		[]string{"identity", "outcome", "slices", "fallbacks", "diagnostics", "reason", "duration"}, fileRows))

	var artifactRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		for _, a := range f.Artifacts {
			artifactRows = append(artifactRows, []string{f.Identity, a})
		}
	}
	if len(artifactRows) > 0 {
		parts = append(parts, formatTabular("artifacts", []string{"identity", "path"}, artifactRows))
	}

	return strings.Join(parts, "\n")
}

// formatDuration renders d in milliseconds precision.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
