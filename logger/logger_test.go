package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		expectErr bool
		enabled   zapcore.Level
	}{
		{name: "info json", level: "info", format: "json", enabled: zapcore.InfoLevel},
		{name: "debug console", level: "debug", format: "console", enabled: zapcore.DebugLevel},
		{name: "warn default format", level: "warn", format: "", enabled: zapcore.WarnLevel},
		{name: "invalid level", level: "loud", format: "json", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer zap.ReplaceGlobals(zap.NewNop())

			err := Initialize(tt.level, tt.format)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, Logger.Core().Enabled(tt.enabled))
			assert.False(t, Logger.Core().Enabled(tt.enabled-1))
			Sync()
		})
	}
}

func TestFor(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	require.NoError(t, Initialize("info", "json"))
	l := For("collector", "Collect")
	assert.NotNil(t, l)
}
