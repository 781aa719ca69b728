package dealfile

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"NPIReportSvc/internal/diag"
)

// data-start sentinel: "SSL", one or more ">", then "SSV" or "SSL"
var dataStartRe = regexp.MustCompile(`^SSL>+(?:SSV|SSL)$`)

const endOfData = "#EOD"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatError reports a missing structural marker in a deal export. It is
// fatal for the run; the caller reports it and produces no output.
type FormatError struct {
	Missing string
}

func (e *FormatError) Error() string {
	return "deal file format error: no " + e.Missing
}

// Parse reads a raw deal export into a DealFile, auto-detecting the schema
// convention. Diagnostics cover non-fatal findings (encoding fallback, arity
// reconciliation, ragged rows); the error is a *FormatError when a required
// structural marker is absent.
func Parse(raw []byte) (*DealFile, []diag.Entry, error) {
	return ParseConvention(raw, ConventionAuto)
}

// ParseConvention is Parse with a fixed schema convention. With a fixed
// convention the schema section is required; only ConventionAuto falls back
// to the canonical column layout for schema-less files.
func ParseConvention(raw []byte, conv Convention) (*DealFile, []diag.Entry, error) {
	var diags []diag.Entry

	lines, note := decodeLines(raw)
	if note != nil {
		diags = append(diags, *note)
	}

	names, schemaFound := extractSchema(lines, conv)
	start := findDataStart(lines)

	if !schemaFound {
		if conv != ConventionAuto || start < 0 {
			return nil, diags, &FormatError{Missing: "header/schema section"}
		}
		names = canonicalColumns()
		diags = append(diags, diag.Warnf("no schema section found; assuming the canonical %d-column deal layout", len(names)))
	}
	if start < 0 {
		return nil, diags, &FormatError{Missing: "data-start sentinel"}
	}

	rows := readDataRows(lines[start+1:])
	if len(rows) == 0 {
		return nil, diags, &FormatError{Missing: "data rows"}
	}

	names, arityDiags := reconcileArity(names, len(rows[0]))
	diags = append(diags, arityDiags...)

	records, ragged := normalizeRows(rows, len(names))
	if ragged > 0 {
		diags = append(diags, diag.Warnf("%d data row(s) did not match the %d-column width and were padded or truncated", ragged, len(names)))
	}

	return newDealFile(names, records), diags, nil
}

// decodeLines turns raw bytes into lines. Exports from legacy systems arrive
// as UTF-8 or Windows-1252; invalid UTF-8 is re-decoded as the latter.
func decodeLines(raw []byte) ([]string, *diag.Entry) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	var note *diag.Entry
	if !utf8.Valid(raw) {
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
			raw = decoded
			e := diag.Infof("deal file is not valid UTF-8; decoded as Windows-1252")
			note = &e
		}
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n"), note
}

func findDataStart(lines []string) int {
	for i, ln := range lines {
		if dataStartRe.MatchString(strings.TrimSpace(ln)) {
			return i
		}
	}
	return -1
}

// readDataRows collects every line after the data-start sentinel until the
// end-of-data sentinel or a blank line.
func readDataRows(lines []string) [][]string {
	var rows [][]string
	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if t == "" || t == endOfData {
			break
		}
		rows = append(rows, splitRow(t))
	}
	return rows
}

// splitRow strips one outer pipe pair when both are present, splits on "|"
// and trims every field.
func splitRow(line string) []string {
	if len(line) >= 2 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
		line = line[1 : len(line)-1]
	}
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// reconcileArity aligns the declared column names with the width of the first
// data row: missing names are backfilled as reserved_<k>, excess names are
// dropped. Either adjustment is surfaced as a warning since it silently
// alters the output schema.
func reconcileArity(names []string, width int) ([]string, []diag.Entry) {
	var diags []diag.Entry
	switch {
	case len(names) < width:
		extra := width - len(names)
		for k := 1; k <= extra; k++ {
			names = append(names, fmt.Sprintf("reserved_%d", k))
		}
		diags = append(diags, diag.Warnf("schema declares %d column(s) but the first data row carries %d; appended %d reserved name(s)", width-extra, width, extra))
	case len(names) > width:
		dropped := len(names) - width
		names = names[:width]
		diags = append(diags, diag.Warnf("schema declares %d column(s) but the first data row carries %d; dropped %d trailing name(s)", width+dropped, width, dropped))
	}
	return names, diags
}

// normalizeRows pads or truncates every row to the reconciled width and
// reports how many rows needed adjusting.
func normalizeRows(rows [][]string, width int) ([]Record, int) {
	records := make([]Record, 0, len(rows))
	ragged := 0
	for _, row := range rows {
		if len(row) != width {
			ragged++
			if len(row) > width {
				row = row[:width]
			} else {
				padded := make([]string, width)
				copy(padded, row)
				row = padded
			}
		}
		records = append(records, Record(row))
	}
	return records, ragged
}
