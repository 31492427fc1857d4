package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zap.AtomicLevel
	}{
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"loud", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want.Level(), ParseLevel(tt.in).Level(), tt.in)
	}
}

func TestInitLog(t *testing.T) {
	t.Parallel()
	l := InitLog(zap.NewAtomicLevelAt(zap.WarnLevel))
	assert.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.ErrorLevel))
}
