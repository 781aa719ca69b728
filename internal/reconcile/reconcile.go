package reconcile

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"NPIReportSvc/internal/dealfile"
	"NPIReportSvc/internal/diag"
)

// ErrEmptyJoin is returned when no identifier in the report details matches
// any identifier in the deal file. Fatal for the run; no output is produced.
var ErrEmptyJoin = errors.New("no matching identifiers between the report and the deal file; check the Security Sedol column in the report and the isin field in the deal file")

// Wire format of the ex-dividend date in the deal export.
const xdDateLayout = "20060102"

// EnrichedRow is one details row with the purification ratio and the derived
// NPI figure attached. Ratio, Accrued and NPI are defaulted to zero when
// missing or unmatched, so every row contributes a numeric value to the
// grand total.
type EnrichedRow struct {
	Cells   []string
	Ratio   decimal.Decimal
	Accrued decimal.Decimal
	NPI     decimal.Decimal
	Matched bool
}

// EnrichedReport is the reconciled output: the summary block with the
// injected grand-total row, and the enriched details block.
type EnrichedReport struct {
	Summary  Grid // with the Total NPI row injected
	TotalRow int  // position of the injected row within Summary

	Header     []string // details header plus the two enrichment columns
	Rows       []EnrichedRow
	SedolCol   int
	AccruedCol int

	Total     decimal.Decimal
	Matched   int
	Unmatched int
}

type dealEntry struct {
	isin  string
	ratio string
}

// Reconcile merges the parsed deal file into the report details, computes
// NPI Base per row and injects the grand total into the summary block. A zero
// asOf disables the temporal filter. Non-fatal findings come back as
// diagnostics; ErrEmptyJoin and *StructureError abort the run.
func Reconcile(deal *dealfile.DealFile, table *ReportTable, asOf time.Time) (*EnrichedReport, []diag.Entry, error) {
	var diags []diag.Entry

	if _, ok := deal.Column(dealfile.FieldISIN); !ok {
		return nil, diags, &StructureError{Missing: dealfile.FieldISIN + " column in the deal file"}
	}
	if _, ok := deal.Column(dealfile.FieldPurifyRatio); !ok {
		diags = append(diags, diag.Warnf("deal file has no %s column; every NPI Base value will be 0", dealfile.FieldPurifyRatio))
	}

	entries, excluded := filterEntries(deal, asOf)
	if excluded > 0 {
		diags = append(diags, diag.Infof("%d deal record(s) excluded by the %s as-of filter", excluded, asOf.Format("2006-01-02")))
	}

	// Key coverage: warn on a size mismatch, naming both one-sided sets.
	reportSet := make(map[string]struct{})
	for _, row := range table.Details {
		if id := strings.TrimSpace(row[table.sedolCol]); id != "" {
			reportSet[id] = struct{}{}
		}
	}
	dealSet := make(map[string]struct{}, len(entries))
	dealCounts := make(map[string]int, len(entries))
	for _, e := range entries {
		dealSet[e.isin] = struct{}{}
		dealCounts[e.isin]++
	}
	if len(reportSet) != len(dealSet) {
		diags = append(diags,
			diag.Warnf("security count mismatch: the report has %d unique identifier(s), the deal file has %d", len(reportSet), len(dealSet)),
			diag.Warnf("identifiers only in the report: %s", formatIDList(diffSorted(reportSet, dealSet))),
			diag.Warnf("identifiers only in the deal file: %s", formatIDList(diffSorted(dealSet, reportSet))),
		)
	}

	// Duplicate identifiers are kept in the deal file; the merge takes the
	// first occurrence in file order.
	var dupes []string
	for id, n := range dealCounts {
		if n > 1 {
			dupes = append(dupes, id)
		}
	}
	if len(dupes) > 0 {
		sort.Strings(dupes)
		diags = append(diags, diag.Warnf("multiple deal entries for identifier(s): %s; the merge keeps the first occurrence of each", strings.Join(dupes, ", ")))
	}

	ratioByISIN := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, ok := ratioByISIN[e.isin]; !ok {
			ratioByISIN[e.isin] = e.ratio
		}
	}

	// Left join: every details row is preserved. Ratio and accrued income are
	// coerced to decimals (missing stays missing), the product is computed
	// with missing-propagates semantics, then all three default to zero.
	rows := make([]EnrichedRow, 0, len(table.Details))
	matched := 0
	total := decimal.Zero
	for _, det := range table.Details {
		sedol := strings.TrimSpace(det[table.sedolCol])
		raw, ok := ratioByISIN[sedol]

		ratio, ratioOK := decimal.Zero, false
		if ok {
			matched++
			ratio, ratioOK = coerceDecimal(raw)
		}
		accrued, accruedOK := coerceDecimal(det[table.accruedCol])

		npi := decimal.Zero
		if ratioOK && accruedOK {
			npi = ratio.Mul(accrued)
		}
		if !ratioOK {
			ratio = decimal.Zero
		}
		if !accruedOK {
			accrued = decimal.Zero
		}

		total = total.Add(npi)
		rows = append(rows, EnrichedRow{
			Cells:   det,
			Ratio:   ratio,
			Accrued: accrued,
			NPI:     npi,
			Matched: ok,
		})
	}

	if matched == 0 {
		return nil, diags, ErrEmptyJoin
	}

	summary, totalRow, err := injectTotal(table.Summary, total)
	if err != nil {
		return nil, diags, err
	}

	header := append(append([]string(nil), table.Header...), ColPurifyRatio, ColNPIBase)

	rep := &EnrichedReport{
		Summary:    summary,
		TotalRow:   totalRow,
		Header:     header,
		Rows:       rows,
		SedolCol:   table.sedolCol,
		AccruedCol: table.accruedCol,
		Total:      total,
		Matched:    matched,
		Unmatched:  len(rows) - matched,
	}
	diags = append(diags, diag.Successf("reconciled %d details row(s): %d matched, %d unmatched; NPI Base total %s", len(rows), matched, rep.Unmatched, total.String()))
	return rep, diags, nil
}

// filterEntries extracts the join-relevant fields from the deal file,
// applying the as-of filter. Records whose ex-dividend date does not parse
// never match; records without an identifier cannot join and are skipped.
func filterEntries(deal *dealfile.DealFile, asOf time.Time) ([]dealEntry, int) {
	var entries []dealEntry
	excluded := 0
	for _, rec := range deal.Records {
		id := strings.TrimSpace(deal.ISIN(rec))
		if id == "" {
			continue
		}
		if !asOf.IsZero() {
			xd, err := time.Parse(xdDateLayout, strings.TrimSpace(deal.XDDate(rec)))
			if err != nil || xd.After(asOf) {
				excluded++
				continue
			}
		}
		entries = append(entries, dealEntry{isin: id, ratio: deal.PurifyRatio(rec)})
	}
	return entries, excluded
}

// injectTotal inserts the Total NPI row directly after the summary anchor
// row. A stale Total NPI row from a previous enrichment is replaced.
func injectTotal(summary Grid, total decimal.Decimal) (Grid, int, error) {
	anchor := -1
	for i, row := range summary {
		if len(row) > 0 && strings.TrimSpace(row[0]) == SummaryAnchor {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return nil, 0, &StructureError{Missing: "summary anchor row (" + SummaryAnchor + ")"}
	}

	totalRow := make([]string, TotalValueCol+1)
	totalRow[0] = TotalRowLabel
	totalRow[TotalValueCol] = total.String()

	out := make(Grid, 0, len(summary)+1)
	out = append(out, summary[:anchor+1]...)
	out = append(out, totalRow)
	rest := summary[anchor+1:]
	if len(rest) > 0 && len(rest[0]) > 0 && strings.TrimSpace(rest[0][0]) == TotalRowLabel {
		rest = rest[1:]
	}
	out = append(out, rest...)
	return out, anchor + 1, nil
}

// coerceDecimal parses a numeric cell the way the report tooling formats
// them (thousands separators tolerated). Empty or unparsable values are
// missing, not zero; the caller decides when missing becomes zero.
func coerceDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func diffSorted(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func formatIDList(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
