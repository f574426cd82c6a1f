package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("", "")
	require.NoError(t, err)

	assert.NotNil(t, logger)
	logger.Info("test message")
	assert.IsType(t, &zap.Logger{}, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_Level(t *testing.T) {
	logger, err := NewLogger("debug", "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("error", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger("loud", "")
	assert.Error(t, err, "Unknown level should be rejected")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortify.log")

	logger, err := NewLogger("info", path)
	require.NoError(t, err)

	logger.Info("message to file", zap.String("short", "py"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"message to file"`)
	assert.Contains(t, string(data), `"short":"py"`)
}
