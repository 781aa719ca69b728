package reconcile

import (
	"strings"

	"NPIReportSvc/internal/dealfile"
)

// Grid is a raw 2-D report table, row-major, as read from a workbook.
type Grid [][]string

// Report literals. The misspellings are load-bearing: they are exactly what
// the upstream report generator emits, and matching is case- and
// spelling-sensitive.
const (
	DetailsMarker    = "DIVIDENDS RECIEVABLE DEATAILS"
	SummaryAnchor    = "Total"
	TotalRowLabel    = "Total NPI"
	ColSecuritySedol = "Security Sedol"
	ColAccruedIncome = "Accured Income Net (Base)"
	ColPurifyRatio   = dealfile.FieldPurifyRatio
	ColNPIBase       = "NPI Base"
)

// The details header row sits exactly two rows below the marker row; the
// first data row is immediately below the header.
const detailsHeaderOffset = 2

// TotalValueCol is the column position in the injected summary row that
// carries the grand total.
const TotalValueCol = 3

// StructureError reports a missing structural marker in the report grid or
// the deal file layout. Fatal for the run.
type StructureError struct {
	Missing string
}

func (e *StructureError) Error() string {
	return "report structure error: no " + e.Missing
}

// ReportTable is the report grid split into its two logical regions.
type ReportTable struct {
	Summary Grid     // rows before the details header; includes the marker row
	Header  []string // details header row, cells trimmed
	Details Grid     // detail data rows, each normalized to the header width

	sedolCol   int
	accruedCol int
}

// SedolCol returns the position of the identifier column in the details block.
func (t *ReportTable) SedolCol() int { return t.sedolCol }

// AccruedCol returns the position of the accrued-income column.
func (t *ReportTable) AccruedCol() int { return t.accruedCol }

// SplitReport locates the details marker and splits the grid into the summary
// block and the details block. The enrichment columns of a previously
// generated report are dropped from the details block so a re-fed report
// reconciles cleanly instead of double-counting.
func SplitReport(g Grid) (*ReportTable, error) {
	marker := -1
	for i, row := range g {
		if len(row) > 0 && strings.TrimSpace(row[0]) == DetailsMarker {
			marker = i
			break
		}
	}
	if marker < 0 {
		return nil, &StructureError{Missing: "details marker row (" + DetailsMarker + ")"}
	}

	headerIdx := marker + detailsHeaderOffset
	if headerIdx >= len(g) {
		return nil, &StructureError{Missing: "details header row"}
	}

	header := make([]string, len(g[headerIdx]))
	for i, cell := range g[headerIdx] {
		header[i] = strings.TrimSpace(cell)
	}

	summary := make(Grid, headerIdx)
	for i := 0; i < headerIdx; i++ {
		summary[i] = append([]string(nil), g[i]...)
	}

	details := make(Grid, 0, len(g)-headerIdx-1)
	for _, row := range g[headerIdx+1:] {
		normalized := make([]string, len(header))
		copy(normalized, row)
		details = append(details, normalized)
	}

	header, details = dropEnrichmentColumns(header, details)

	t := &ReportTable{
		Summary:    summary,
		Header:     header,
		Details:    details,
		sedolCol:   indexOf(header, ColSecuritySedol),
		accruedCol: indexOf(header, ColAccruedIncome),
	}
	if t.sedolCol < 0 {
		return nil, &StructureError{Missing: ColSecuritySedol + " column in the details header"}
	}
	if t.accruedCol < 0 {
		return nil, &StructureError{Missing: ColAccruedIncome + " column in the details header"}
	}
	return t, nil
}

// dropEnrichmentColumns removes any ratio / NPI Base columns left over from a
// previous enrichment pass.
func dropEnrichmentColumns(header []string, details Grid) ([]string, Grid) {
	keep := make([]int, 0, len(header))
	for i, name := range header {
		if name == ColPurifyRatio || name == ColNPIBase {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(header) {
		return header, details
	}

	newHeader := make([]string, len(keep))
	for j, i := range keep {
		newHeader[j] = header[i]
	}
	newDetails := make(Grid, len(details))
	for r, row := range details {
		newRow := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				newRow[j] = row[i]
			}
		}
		newDetails[r] = newRow
	}
	return newHeader, newDetails
}

func indexOf(row []string, name string) int {
	for i, cell := range row {
		if cell == name {
			return i
		}
	}
	return -1
}
