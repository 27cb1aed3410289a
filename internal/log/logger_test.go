package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseLevel(tc.in), "level %q", tc.in)
	}
}

func TestParseFormat(t *testing.T) {
	require.Equal(t, FormatJSON, ParseFormat("json"))
	require.Equal(t, FormatJSON, ParseFormat("JSON"))
	require.Equal(t, FormatPretty, ParseFormat("pretty"))
	require.Equal(t, FormatPretty, ParseFormat(""))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "INFO", FormatJSON)
	logger.Info("embedding stored", "artwork_id", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "embedding stored", record["msg"])
	require.Equal(t, float64(42), record["artwork_id"])
}

func TestTerminalFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "INFO", FormatPretty)
	logger.Info("batch committed", "batch", 3)

	out := buf.String()
	require.Contains(t, out, "INF")
	require.Contains(t, out, "batch committed")
	require.Contains(t, out, "batch=")
	require.True(t, strings.HasSuffix(out, "\n"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "WARN", FormatPretty)
	logger.Info("not visible")
	require.Empty(t, buf.String())

	logger.Warn("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestGroupedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "INFO", FormatPretty).WithGroup("report")
	logger.Info("run complete", "successes", 10)
	require.Contains(t, buf.String(), "report.successes=")
}
