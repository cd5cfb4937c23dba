package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/depot/internal/config"
)

func TestNewHonoursLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"loud", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var cfg config.Config
			cfg.Observability.LogLevel = tt.level
			cfg.Observability.LogEncoding = "json"

			lc := fxtest.NewLifecycle(t)
			log, err := New(lc, cfg)
			require.NoError(t, err)
			lc.RequireStart().RequireStop()

			assert.Equal(t, tt.want, log.Level())
		})
	}
}

func TestNewConsoleEncoding(t *testing.T) {
	var cfg config.Config
	cfg.Observability.LogEncoding = "console"

	log, err := New(fxtest.NewLifecycle(t), cfg)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestEventLoggerWritesAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	events := EventLogger(zap.New(core))

	events.LogEvent(&fxevent.Started{})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "fx", entry.LoggerName)
}
