package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type palette struct {
	time      string
	component string
	key       string
	warn      string
	err       string
}

var palettes = map[string]palette{
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;108m",
		key:       "\x1b[38;5;65m",
		warn:      "\x1b[38;5;179m",
		err:       "\x1b[38;5;167m",
	},
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;208m",
		key:       "\x1b[38;5;109m",
		warn:      "\x1b[38;5;214m",
		err:       "\x1b[38;5;167m",
	},
}

var pool = buffer.NewPool()

// Current active theme
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output.
// Unknown themes are ignored.
func SetTheme(theme string) {
	if _, ok := palettes[theme]; ok {
		currentTheme = theme
	}
}

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  executor  Plan executed  applied=3 failed=0"
type minimalEncoder struct {
	zapcore.Encoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := palettes[currentTheme]
	final := pool.Get()

	final.AppendString(p.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	switch {
	case ent.Level == zapcore.WarnLevel:
		final.AppendString("  " + colorBold + p.warn + "WARN" + colorReset)
	case ent.Level >= zapcore.ErrorLevel:
		final.AppendString("  " + colorBold + p.err + ent.Level.CapitalString() + colorReset)
	case ent.Level == zapcore.DebugLevel:
		final.AppendString("  DEBUG")
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(p.component)
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	if kv := encodeFields(fields, p); kv != "" {
		final.AppendString("  ")
		final.AppendString(kv)
	}

	final.AppendString("\n")
	return final, nil
}

// encodeFields renders every field as key=value, sorted by key.
// Nothing is dropped: unknown field types go through zap's map encoder.
func encodeFields(fields []zapcore.Field, p palette) string {
	if len(fields) == 0 {
		return ""
	}
	m := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(m)
	}
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s%s%s=%v", p.key, k, colorReset, m.Fields[k]))
	}
	return strings.Join(parts, " ")
}
