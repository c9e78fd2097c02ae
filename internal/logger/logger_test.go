package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/internal/logger"
)

func TestParseLevelKnownAndUnknown(t *testing.T) {
	require.Equal(t, logger.DebugLevel, logger.ParseLevel("DEBUG"))
	require.Equal(t, logger.WarnLevel, logger.ParseLevel("WARN"))
	require.Equal(t, logger.ErrorLevel, logger.ParseLevel("ERROR"))
	require.Equal(t, logger.InfoLevel, logger.ParseLevel("garbage"))
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", logger.DebugLevel.String())
	require.Equal(t, "INFO", logger.InfoLevel.String())
	require.Equal(t, "WARN", logger.WarnLevel.String())
	require.Equal(t, "ERROR", logger.ErrorLevel.String())
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.WarnLevel)

	log.Info("should not appear")
	log.Warn("should appear")
	require.NoError(t, log.Sync())

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "should appear")
}

func TestLoggerFormatsArgs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.DebugLevel)

	log.Infof("walked %d records", 7)
	require.NoError(t, log.Sync())
	require.Contains(t, buf.String(), "walked 7 records")
}
