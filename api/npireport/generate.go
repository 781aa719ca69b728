package npireport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"NPIReportSvc/api"
	"NPIReportSvc/internal/checksum"
	"NPIReportSvc/internal/config"
	"NPIReportSvc/internal/dealfile"
	"NPIReportSvc/internal/diag"
	"NPIReportSvc/internal/logger"
	"NPIReportSvc/internal/reconcile"
	"NPIReportSvc/internal/workbook"
)

// GenerateReport enriches an uploaded Dividends Receivable report with the
// purification figures from the deal file and streams the result back as a
// workbook download. Non-fatal findings travel in the X-Warnings header count
// and the service log; fatal ones come back as a JSON error envelope naming
// the failed stage.
func GenerateReport() http.HandlerFunc {
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
		asOf, err := parseValueDate(r.FormValue(FieldValueDate))
		if err != nil {
			respondStageError(w, http.StatusBadRequest, StageRequest, err.Error(), nil)
			return
		}
		if expected := r.FormValue(FieldDealSHA256); expected != "" && !checksum.Matches(dealData, expected) {
			respondStageError(w, http.StatusBadRequest, StageRequest, FieldDealFile+" checksum mismatch", nil)
			return
		}
		if expected := r.FormValue(FieldReportSHA256); expected != "" && !checksum.Matches(reportData, expected) {
			respondStageError(w, http.StatusBadRequest, StageRequest, FieldReportFile+" checksum mismatch", nil)
			return
		}

		runID := uuid.New().String()
		api.LogInfo("run %s: deal %s (%s), report %s (%s)",
			runID, dealName, checksum.Fingerprint(dealData), reportName, checksum.Fingerprint(reportData))

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
		logs = append(logs, diag.Infof("report decoded as %s: %d row(s)", format, len(grid)))

		table, err := reconcile.SplitReport(grid)
		if err != nil {
			respondStageError(w, http.StatusUnprocessableEntity, StageReport, err.Error(), logs)
			return
		}

		rep, recDiags, err := reconcile.Reconcile(deal, table, asOf)
		logs = append(logs, recDiags...)
		if err != nil {
			respondStageError(w, http.StatusUnprocessableEntity, StageReconcile, err.Error(), logs)
			return
		}

		out, err := workbook.WriteReport(rep)
		if err != nil {
			respondStageError(w, http.StatusInternalServerError, StageRender, err.Error(), logs)
			return
		}

		warnings := diag.CountLevel(logs, diag.LevelWarn)
		w.Header().Set("Content-Type", workbook.MimeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", OutputFilename))
		w.Header().Set("X-Run-Id", runID)
		w.Header().Set("X-Warnings", strconv.Itoa(warnings))
		w.Write(out)

		api.LogInfo("run %s: %d matched, %d unmatched, NPI total %s, %d warning(s)",
			runID, rep.Matched, rep.Unmatched, rep.Total.String(), warnings)
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("run %s generated %s for %s + %s", runID, OutputFilename, dealName, reportName))
		}
	}
}
