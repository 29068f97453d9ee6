package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithOutput_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Str("asset", "AAPL").Msg("clamped")
	assert.Contains(t, buf.String(), `"asset":"AAPL"`)
	assert.Contains(t, buf.String(), `"message":"clamped"`)
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.OrSilent().Error().Msg("nothing") })
}
