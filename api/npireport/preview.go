package npireport

import (
	"net/http"

	"github.com/google/uuid"

	"NPIReportSvc/api"
	"NPIReportSvc/internal/checksum"
	"NPIReportSvc/internal/config"
	"NPIReportSvc/internal/dealfile"
	"NPIReportSvc/internal/diag"
	"NPIReportSvc/internal/reconcile"
	"NPIReportSvc/internal/workbook"
)

// PreviewSources validates both uploads and reports their shape without
// producing a workbook, so a caller can sanity-check a pairing before a full
// run.
func PreviewSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			respondStageError(w, http.StatusBadRequest, StageRequest, "failed to parse multipart form", nil)
			return
		}
		dealData, dealName, err := readUploadPart(r, FieldDealFile)
		if err != nil {
			respondStageError(w, http.StatusBadRequest, StageRequest, err.Error(), nil)
			return
		}
		reportData, reportName, err := readUploadPart(r, FieldReportFile)
		if err != nil {
			respondStageError(w, http.StatusBadRequest, StageRequest, err.Error(), nil)
			return
		}

		runID := uuid.New().String()
		logs := []diag.Entry{}

		deal, parseDiags, err := dealfile.Parse(dealData)
		logs = append(logs, parseDiags...)
		if err != nil {
			respondStageError(w, http.StatusUnprocessableEntity, StageDealFile, err.Error(), logs)
			return
		}

		grid, format, err := workbook.ReadGrid(reportData)
		if err != nil {
			respondStageError(w, http.StatusUnprocessableEntity, StageReport, err.Error(), logs)
			return
		}

		table, err := reconcile.SplitReport(grid)
		if err != nil {
			respondStageError(w, http.StatusUnprocessableEntity, StageReport, err.Error(), logs)
			return
		}

		dupes := deal.DuplicateISINs()
		if dupes == nil {
			dupes = make([]string, 0)
		}
		api.RespondWithPayload(w, map[string]interface{}{
			"run_id": runID,
			"deal_file": map[string]interface{}{
				"filename":        dealName,
				"sha256":          checksum.Fingerprint(dealData),
				"columns":         len(deal.Columns),
				"records":         len(deal.Records),
				"unique_isins":    len(deal.UniqueISINs()),
				"duplicate_isins": dupes,
			},
			"report_file": map[string]interface{}{
				"filename":     reportName,
				"sha256":       checksum.Fingerprint(reportData),
				"format":       format,
				"summary_rows": len(table.Summary),
				"detail_rows":  len(table.Details),
				"columns":      len(table.Header),
			},
			"logs": logs,
		})
		api.LogInfo("preview %s: deal %d record(s), report %d detail row(s)", runID, len(deal.Records), len(table.Details))
	}
}
