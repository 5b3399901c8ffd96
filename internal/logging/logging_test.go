package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSONOutputCarriesStaticFields(t *testing.T) {
	var buf bytes.Buffer
	logger := Configure(Config{
		Level:            "INFO",
		Structured:       true,
		StructuredFormat: "json",
		ExtraFields:      map[string]string{"service": "geosafe"},
		Output:           &buf,
	})

	logger.Info("fanout complete", "sources", 5)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fanout complete", line["msg"])
	assert.Equal(t, "geosafe", line["service"])
	assert.Equal(t, float64(5), line["sources"])
}

func TestConfigureTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Configure(Config{Level: "INFO", Output: &buf})

	logger.Info("cache hit", "source", "USGS", "age_seconds", 12)

	out := buf.String()
	assert.Contains(t, out, "cache hit")
	assert.Contains(t, out, "source=USGS")
	assert.Contains(t, out, "age_seconds=12")
}

func TestConfigureLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := Configure(Config{Level: "WARN", Output: &buf})

	logger.Debug("noise")
	logger.Info("still noise")
	logger.Warn("breaker opened", "source", "GDACS")

	out := buf.String()
	assert.NotContains(t, out, "noise")
	assert.Contains(t, out, "breaker opened")
}

func TestConfigureIncludePID(t *testing.T) {
	var buf bytes.Buffer
	logger := Configure(Config{
		Level:            "INFO",
		Structured:       true,
		StructuredFormat: "json",
		IncludePID:       true,
		Output:           &buf,
	})

	logger.Info("starting")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Contains(t, line, "pid")
}

func TestForSourceTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	logger := Configure(Config{Level: "INFO", Output: &buf})

	ForSource(logger, "NWS").Warn("fetch failed", "error", "503")

	assert.Contains(t, buf.String(), "source=NWS")
}

func TestForSourceNilLogger(t *testing.T) {
	assert.Nil(t, ForSource(nil, "USGS"))
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{" info ", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		name := tc.input
		if strings.TrimSpace(name) == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseLevel(tc.input))
		})
	}
}
