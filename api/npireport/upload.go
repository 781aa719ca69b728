package npireport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"NPIReportSvc/api"
	"NPIReportSvc/internal/diag"
)

// readUploadPart pulls one uploaded file out of the parsed multipart form.
func readUploadPart(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %s upload", field)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%s upload is empty", field)
	}
	return data, header.Filename, nil
}

// Accepted layouts for the value_date form field. The compact form matches
// the deal file's own xd_date convention.
var valueDateLayouts = []string{"2006-01-02", "02-01-2006", "2006/01/02", "20060102"}

// parseValueDate parses the optional as-of date. Empty input disables the
// temporal filter.
func parseValueDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range valueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", FieldValueDate, s)
}

// respondStageError sends the failure envelope for a run, carrying the
// diagnostics collected up to the failure point.
func respondStageError(w http.ResponseWriter, status int, stage, errMsg string, logs []diag.Entry) {
	api.LogError("%s stage failed: %s", stage, errMsg)
	if logs == nil {
		logs = []diag.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"stage":   stage,
		"error":   errMsg,
		"logs":    logs,
	})
}
