package cmd

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudbench/internal/config"
)

func TestRestoreTerminalLogging(t *testing.T) {
	ok := &config.Config{LogLevel: "info", LogFormat: "text"}
	assert.NoError(t, restoreTerminalLogging(ok, nil))

	sweepErr := errors.New("writing results: disk full")
	assert.Equal(t, sweepErr, restoreTerminalLogging(ok, sweepErr))

	bad := &config.Config{LogLevel: "info", LogFormat: "xml"}
	err := restoreTerminalLogging(bad, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restoring terminal logging")

	// the sweep's own failure wins
	assert.Equal(t, sweepErr, restoreTerminalLogging(bad, sweepErr))
}

func TestRateFlagDocumentsMinimum(t *testing.T) {
	flag := rootCmd.Flags().Lookup("rate")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "below 10 run at 10")
}
