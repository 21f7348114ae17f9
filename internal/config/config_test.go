package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BATCH_WORKERS", "HTTP_ADDR", "GOOGLE_SHEET_URL", "GOOGLE_SHEET_WORKSHEET", "LOG_FORMAT", "LOG_LEVEL", "CHECK_TOTALS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "Documentos", cfg.GoogleSheetWorksheet)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxDocumentSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.CheckTotals)
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "3")
	t.Setenv("CHECK_TOTALS", "true")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.BatchWorkers)
	assert.True(t, cfg.CheckTotals)
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)
	assert.True(t, cfg.SheetsEnabled())
	assert.Error(t, cfg.ValidateSheets(), "service account key is missing")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"BATCH_WORKERS":    "0",
		"CHECK_TOTALS":     "maybe",
		"LOG_FORMAT":       "xml",
		"SHUTDOWN_TIMEOUT": "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
