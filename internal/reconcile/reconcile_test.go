package reconcile

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NPIReportSvc/internal/dealfile"
	"NPIReportSvc/internal/diag"
)

// mustDeal renders a deal export in the numbered-header layout and parses it.
func mustDeal(t *testing.T, cols []string, rows ...[]string) *dealfile.DealFile {
	t.Helper()
	var b strings.Builder
	b.WriteString("# 1 2 3\n")
	for i, c := range cols {
		fmt.Fprintf(&b, "# %d %s\n", i+1, c)
	}
	b.WriteString("SSL>>>SSV\n")
	for _, r := range rows {
		b.WriteString("|" + strings.Join(r, "|") + "|\n")
	}
	b.WriteString("#EOD\n")
	deal, _, err := dealfile.Parse([]byte(b.String()))
	require.NoError(t, err)
	return deal
}

func mustSplit(t *testing.T, g Grid) *ReportTable {
	t.Helper()
	table, err := SplitReport(g)
	require.NoError(t, err)
	return table
}

var dealCols = []string{"isin", "xd_date", "net_domestic_amount_to_purify"}

func TestReconcile_ComputesNPIBase(t *testing.T) {
	deal := mustDeal(t, dealCols, []string{"ISIN1", "20250801", "0.05"})
	table := mustSplit(t, reportGrid([]string{"Acme", "ISIN1", "1.0", "1000"}))

	rep, diags, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)

	require.Len(t, rep.Rows, 1)
	assert.True(t, rep.Rows[0].Matched)
	assert.True(t, rep.Rows[0].Ratio.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, rep.Rows[0].Accrued.Equal(decimal.NewFromInt(1000)))
	assert.True(t, rep.Rows[0].NPI.Equal(decimal.NewFromInt(50)))
	assert.True(t, rep.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, rep.Matched)
	assert.Equal(t, 0, rep.Unmatched)

	// The details header gains exactly the two enrichment columns.
	n := len(rep.Header)
	assert.Equal(t, ColPurifyRatio, rep.Header[n-2])
	assert.Equal(t, ColNPIBase, rep.Header[n-1])

	// The grand total lands directly after the anchor row.
	require.Equal(t, 4, rep.TotalRow)
	assert.Equal(t, "Total", rep.Summary[3][0])
	assert.Equal(t, TotalRowLabel, rep.Summary[rep.TotalRow][0])
	assert.Equal(t, "50", rep.Summary[rep.TotalRow][TotalValueCol])

	assert.Equal(t, 1, diag.CountLevel(diags, diag.LevelSuccess))
	assert.False(t, diag.HasWarnings(diags))
}

func TestReconcile_LeftJoinDefaultsToZero(t *testing.T) {
	deal := mustDeal(t, dealCols, []string{"ISIN1", "20250801", "0.05"})
	table := mustSplit(t, reportGrid(
		[]string{"Acme", "ISIN1", "", "1000"},
		[]string{"Beta", "ZZZ", "", "200"},
		[]string{"Gamma", "ISIN1", "", ""},
	))

	rep, diags, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 3)

	assert.True(t, rep.Rows[0].NPI.Equal(decimal.NewFromInt(50)))

	// Unmatched row keeps its accrued income; ratio and NPI default to zero.
	assert.False(t, rep.Rows[1].Matched)
	assert.True(t, rep.Rows[1].Accrued.Equal(decimal.NewFromInt(200)))
	assert.True(t, rep.Rows[1].Ratio.IsZero())
	assert.True(t, rep.Rows[1].NPI.IsZero())

	// Matched row with a blank accrued cell contributes zero.
	assert.True(t, rep.Rows[2].Matched)
	assert.True(t, rep.Rows[2].Accrued.IsZero())
	assert.True(t, rep.Rows[2].NPI.IsZero())

	assert.True(t, rep.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, rep.Matched)
	assert.Equal(t, 1, rep.Unmatched)

	var msgs []string
	for _, d := range diags {
		if d.Level == diag.LevelWarn {
			msgs = append(msgs, d.Message)
		}
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "identifiers only in the report: ZZZ")
	assert.Contains(t, joined, "identifiers only in the deal file: (none)")
}

func TestReconcile_DuplicateEntriesFirstWins(t *testing.T) {
	deal := mustDeal(t, dealCols,
		[]string{"AAA", "20250801", "0.05"},
		[]string{"AAA", "20250801", "0.99"},
		[]string{"BBB", "20250801", "0.10"},
	)
	table := mustSplit(t, reportGrid(
		[]string{"Acme", "AAA", "", "100"},
		[]string{"Beta", "BBB", "", "200"},
	))

	rep, diags, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)

	assert.True(t, rep.Rows[0].NPI.Equal(decimal.NewFromInt(5)), "first occurrence ratio wins")
	assert.True(t, rep.Rows[1].NPI.Equal(decimal.NewFromInt(20)))
	assert.True(t, rep.Total.Equal(decimal.NewFromInt(25)))

	// Unique counts agree on both sides, so the only warning is the
	// duplicate one.
	require.Equal(t, 1, diag.CountLevel(diags, diag.LevelWarn))
	for _, d := range diags {
		if d.Level == diag.LevelWarn {
			assert.Contains(t, d.Message, "AAA")
			assert.Contains(t, d.Message, "first occurrence")
		}
	}
}

// Duplicates must not distort the coverage diff: a deal file {A, A, B}
// against a report {A, B, C} reports C as report-only, nothing as deal-only,
// and names A as the duplicate.
func TestReconcile_DuplicateSafeCoverage(t *testing.T) {
	deal := mustDeal(t, dealCols,
		[]string{"A", "20250801", "0.05"},
		[]string{"A", "20250801", "0.07"},
		[]string{"B", "20250801", "0.10"},
	)
	table := mustSplit(t, reportGrid(
		[]string{"Row1", "A", "", "100"},
		[]string{"Row2", "B", "", "100"},
		[]string{"Row3", "C", "", "100"},
	))

	_, diags, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)

	var warns []string
	for _, d := range diags {
		if d.Level == diag.LevelWarn {
			warns = append(warns, d.Message)
		}
	}
	joined := strings.Join(warns, "\n")
	assert.Contains(t, joined, "the report has 3 unique identifier(s), the deal file has 2")
	assert.Contains(t, joined, "identifiers only in the report: C")
	assert.Contains(t, joined, "identifiers only in the deal file: (none)")
	assert.Contains(t, joined, "multiple deal entries for identifier(s): A")
}

func TestReconcile_TemporalFilter(t *testing.T) {
	deal := mustDeal(t, dealCols,
		[]string{"AAA", "20250810", "0.1"},
		[]string{"BBB", "20250820", "0.1"},
		[]string{"CCC", "notadate", "0.1"},
		[]string{"DDD", "20250815", "0.1"},
	)
	table := mustSplit(t, reportGrid(
		[]string{"A", "AAA", "", "100"},
		[]string{"B", "BBB", "", "100"},
		[]string{"C", "CCC", "", "100"},
		[]string{"D", "DDD", "", "100"},
	))

	asOf := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	rep, diags, err := Reconcile(deal, table, asOf)
	require.NoError(t, err)

	assert.True(t, rep.Rows[0].NPI.Equal(decimal.NewFromInt(10)), "xd before cutoff joins")
	assert.True(t, rep.Rows[1].NPI.IsZero(), "xd after cutoff is excluded")
	assert.True(t, rep.Rows[2].NPI.IsZero(), "unparsable xd never matches")
	assert.True(t, rep.Rows[3].NPI.Equal(decimal.NewFromInt(10)), "xd on the cutoff day joins")
	assert.Equal(t, 2, rep.Matched)
	assert.Equal(t, 2, rep.Unmatched)

	found := false
	for _, d := range diags {
		if d.Level == diag.LevelInfo && strings.Contains(d.Message, "2 deal record(s) excluded") {
			found = true
		}
	}
	assert.True(t, found, "exclusions should be counted in an info entry")
}

func TestReconcile_ZeroAsOfDisablesFilter(t *testing.T) {
	deal := mustDeal(t, dealCols,
		[]string{"AAA", "20250810", "0.1"},
		[]string{"BBB", "20990101", "0.1"},
		[]string{"CCC", "notadate", "0.1"},
	)
	table := mustSplit(t, reportGrid(
		[]string{"A", "AAA", "", "100"},
		[]string{"B", "BBB", "", "100"},
		[]string{"C", "CCC", "", "100"},
	))

	rep, _, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Matched)
	assert.True(t, rep.Total.Equal(decimal.NewFromInt(30)))
}

func TestReconcile_EmptyJoinAborts(t *testing.T) {
	deal := mustDeal(t, dealCols, []string{"ZZZ", "20250801", "0.05"})

	t.Run("no identifier overlap", func(t *testing.T) {
		// One identifier per side: the unique counts agree, so the coverage
		// check stays quiet and only the join guard catches the mismatch.
		table := mustSplit(t, reportGrid([]string{"Acme", "ISIN1", "", "1000"}))
		_, diags, err := Reconcile(deal, table, time.Time{})
		assert.ErrorIs(t, err, ErrEmptyJoin)
		assert.False(t, diag.HasWarnings(diags))
	})

	t.Run("no detail rows", func(t *testing.T) {
		table := mustSplit(t, reportGrid())
		_, _, err := Reconcile(deal, table, time.Time{})
		assert.ErrorIs(t, err, ErrEmptyJoin)
	})
}

func TestReconcile_MissingRatioColumnYieldsZeros(t *testing.T) {
	deal := mustDeal(t, []string{"isin", "xd_date"}, []string{"ISIN1", "20250801"})
	table := mustSplit(t, reportGrid([]string{"Acme", "ISIN1", "", "1000"}))

	rep, diags, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)

	assert.True(t, rep.Rows[0].Matched)
	assert.True(t, rep.Rows[0].NPI.IsZero())
	assert.True(t, rep.Total.IsZero())
	assert.Equal(t, "0", rep.Summary[rep.TotalRow][TotalValueCol])

	found := false
	for _, d := range diags {
		if d.Level == diag.LevelWarn && strings.Contains(d.Message, "every NPI Base value will be 0") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReconcile_MissingISINColumnFails(t *testing.T) {
	deal := mustDeal(t, []string{"security_name"}, []string{"Acme"})
	table := mustSplit(t, reportGrid([]string{"Acme", "ISIN1", "", "1000"}))

	_, _, err := Reconcile(deal, table, time.Time{})
	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Missing, "isin column")
}

func TestReconcile_MissingAnchorFails(t *testing.T) {
	deal := mustDeal(t, dealCols, []string{"ISIN1", "20250801", "0.05"})
	g := Grid{
		{DetailsMarker},
		{},
		{"Security Name", ColSecuritySedol, ColAccruedIncome},
		{"Acme", "ISIN1", "1000"},
	}
	table := mustSplit(t, g)

	_, _, err := Reconcile(deal, table, time.Time{})
	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Missing, "summary anchor row")
}

// Feeding a generated report back through the pipeline must not double-count:
// the enrichment columns are dropped on split and the stale grand-total row is
// replaced, so a second run reproduces the first.
func TestReconcile_Idempotent(t *testing.T) {
	deal := mustDeal(t, dealCols, []string{"ISIN1", "20250801", "0.05"})
	table := mustSplit(t, reportGrid([]string{"Acme", "ISIN1", "1.0", "1000"}))

	first, _, err := Reconcile(deal, table, time.Time{})
	require.NoError(t, err)

	// Rebuild the output grid the way the workbook writer lays it out.
	g2 := make(Grid, 0, len(first.Summary)+1+len(first.Rows))
	g2 = append(g2, first.Summary...)
	g2 = append(g2, append([]string(nil), first.Header...))
	for _, row := range first.Rows {
		cells := append([]string(nil), row.Cells...)
		cells = append(cells, row.Ratio.String(), row.NPI.String())
		g2 = append(g2, cells)
	}

	table2 := mustSplit(t, g2)
	second, _, err := Reconcile(deal, table2, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, first.Header, second.Header)
	assert.True(t, second.Total.Equal(first.Total))
	assert.Equal(t, first.TotalRow, second.TotalRow)
	assert.Equal(t, first.Summary, second.Summary)
	require.Len(t, second.Rows, len(first.Rows))
	assert.Equal(t, first.Rows[0].Cells, second.Rows[0].Cells)
	assert.True(t, second.Rows[0].NPI.Equal(first.Rows[0].NPI))

	totalRows := 0
	for _, row := range second.Summary {
		if len(row) > 0 && row[0] == TotalRowLabel {
			totalRows++
		}
	}
	assert.Equal(t, 1, totalRows, "exactly one grand-total row after a re-run")
}
