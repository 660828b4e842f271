package logger

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func stripANSI(str string) string {
	return regexp.MustCompile(`\x1b\[[0-9;]*m`).ReplaceAllString(str, "")
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: 0},
		{name: "Console output mode", jsonOutput: false, verbosity: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, "Info (-v)", LevelName(1))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample().Sugar()
	assert.Same(t, l, OrNop(l))
}

func TestMinimalEncoderKeepsAllFields(t *testing.T) {
	enc := newMinimalEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2025, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "executor",
		Message:    "Entry failed",
	}
	fields := []zapcore.Field{
		zap.String(FieldName, "milk"),
		zap.Int(FieldDelta, -2),
		zap.Bool("parallel", true),
		zap.Strings("names", []string{"a", "b"}),
	}

	buf, err := enc.EncodeEntry(entry, fields)
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "executor")
	assert.Contains(t, out, "Entry failed")
	assert.Contains(t, out, "name=milk")
	assert.Contains(t, out, "delta=-2")
	assert.Contains(t, out, "parallel=true")
	assert.Contains(t, out, "names=")
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("everforest")

	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", currentTheme)

	SetTheme("nonexistent")
	assert.Equal(t, "gruvbox", currentTheme)
}
