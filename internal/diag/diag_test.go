package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		level string
	}{
		{"info", Infof("parsed %d rows", 3), LevelInfo},
		{"warn", Warnf("ragged row"), LevelWarn},
		{"error", Errorf("bad input"), LevelError},
		{"success", Successf("done"), LevelSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, tt.entry.Level)
			assert.NotEmpty(t, tt.entry.Message)
		})
	}
	assert.Equal(t, "parsed 3 rows", Infof("parsed %d rows", 3).Message)
}

func TestLevelCounting(t *testing.T) {
	entries := []Entry{
		Infof("a"),
		Warnf("b"),
		Warnf("c"),
		Successf("d"),
	}
	assert.True(t, HasWarnings(entries))
	assert.Equal(t, 2, CountLevel(entries, LevelWarn))
	assert.Equal(t, 1, CountLevel(entries, LevelInfo))
	assert.Equal(t, 0, CountLevel(entries, LevelError))
	assert.False(t, HasWarnings([]Entry{Infof("x")}))
	assert.False(t, HasWarnings(nil))
}
