package config

const (
	// DefaultNPIReportPort is used when services.yaml carries no port for the
	// npireport service.
	DefaultNPIReportPort = 9143

	// MaxUploadBytes caps a single multipart upload.
	MaxUploadBytes = 32 << 20
)
