package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, jsoniter.UnmarshalFromString(line, &rec))
		records = append(records, rec)
	}
	return records
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNamedAndWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "info", Format: "json"}, &buf).Named("book")

	logger.WithError(errors.New("boom")).Warn("loan failed")
	logger.Debug("hidden")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "book", records[0]["component"])
	assert.Equal(t, "boom", records[0]["error"])
	assert.Equal(t, "loan failed", records[0]["msg"])
	assert.Equal(t, "book", logger.Component())
}

func TestWithNilErrorKeepsLogger(t *testing.T) {
	logger := Discard()
	assert.Same(t, logger, logger.WithError(nil))
}

func TestHTTPRequestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Format: "json"}, &buf)

	logger.HTTPRequestLog("GET", "/api/v1/books", 200, 1500*time.Microsecond, "10.0.0.1")
	logger.HTTPRequestLog("POST", "/api/v1/books", 500, time.Millisecond, "10.0.0.1")

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "INFO", records[0]["level"])
	assert.Equal(t, 1.5, records[0]["duration_ms"])
	assert.Equal(t, float64(200), records[0]["status"])
	assert.Equal(t, "ERROR", records[1]["level"])
}
