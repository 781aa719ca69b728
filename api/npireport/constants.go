package npireport

// Multipart form fields accepted by the report endpoints.
const (
	FieldDealFile   = "deal_file"
	FieldReportFile = "report_file"
	FieldValueDate  = "value_date"

	// Optional client-supplied fingerprints; when present the upload is
	// rejected if its bytes do not hash to the given value.
	FieldDealSHA256   = "deal_sha256"
	FieldReportSHA256 = "report_sha256"
)

// Pipeline stages named in error envelopes.
const (
	StageRequest   = "request"
	StageDealFile  = "deal_file"
	StageReport    = "report_file"
	StageReconcile = "reconcile"
	StageRender    = "render"
)

// OutputFilename is the attachment name of the generated workbook.
const OutputFilename = "Dividends_Receivable_Report_with_NPI.xlsx"
