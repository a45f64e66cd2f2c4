package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level string
		dev   bool
		want  zapcore.Level
	}{
		{level: "info", want: zapcore.InfoLevel},
		{level: "debug", dev: true, want: zapcore.DebugLevel},
		{level: "warn", want: zapcore.WarnLevel},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger, err := New(tc.level, tc.dev)
			require.NoError(t, err)
			require.True(t, logger.Core().Enabled(tc.want))
			require.False(t, logger.Core().Enabled(tc.want-1))
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud", false)
	require.Error(t, err)
}
