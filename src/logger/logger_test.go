package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"watchlist-trader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	log := NewLogger(nil, "Ledger")
	log.Info("refreshed %d orders", 3)

	out := buf.String()
	assert.Contains(t, out, "component=Ledger")
	assert.Contains(t, out, "refreshed 3 orders")
	assert.Equal(t, "Ledger", log.Name())
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	NewLogger(nil, "Orders").With("symbol", "AAPL").Warning("rejected")
	assert.Contains(t, buf.String(), "symbol=AAPL")
	assert.Contains(t, buf.String(), "level=warning")
}

func TestSetupCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Setup("debug", models.MLogFileConfig{Path: path, MaxSizeMB: 1}))
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		_ = Setup("info", models.MLogFileConfig{})
	})

	NewLogger(nil, "Test").Debug("hello")
	assert.FileExists(t, path)
}
