package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFollowsAtomicLevel(t *testing.T) {
	for _, dev := range []bool{true, false} {
		level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
		logger, err := New(level, dev, "svc")
		require.NoError(t, err)

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		level.SetLevel(zapcore.DebugLevel)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	}
}
