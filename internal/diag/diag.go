package diag

import "fmt"

// Entry represents one structured diagnostic produced by a pipeline stage.
// Stages accumulate entries and hand them back to the caller; nothing in the
// core prints directly.
type Entry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Diagnostic levels
const (
	LevelInfo    = "INFO"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"
	LevelSuccess = "SUCCESS"
)

// Infof builds an INFO entry.
func Infof(format string, args ...interface{}) Entry {
	return Entry{Level: LevelInfo, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a WARN entry.
func Warnf(format string, args ...interface{}) Entry {
	return Entry{Level: LevelWarn, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an ERROR entry.
func Errorf(format string, args ...interface{}) Entry {
	return Entry{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

// Successf builds a SUCCESS entry.
func Successf(format string, args ...interface{}) Entry {
	return Entry{Level: LevelSuccess, Message: fmt.Sprintf(format, args...)}
}

// HasWarnings reports whether any entry is WARN or ERROR level.
func HasWarnings(entries []Entry) bool {
	for _, e := range entries {
		if e.Level == LevelWarn || e.Level == LevelError {
			return true
		}
	}
	return false
}

// CountLevel returns how many entries carry the given level.
func CountLevel(entries []Entry, level string) int {
	n := 0
	for _, e := range entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
