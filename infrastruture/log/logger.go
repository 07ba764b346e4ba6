// Package log provides the named, colored console logger shared by every component.
package log

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/beka-birhanu/vinom-sandbox/config"
)

// Logger writes leveled messages tagged with a colored component name.
// It satisfies the Logger interfaces declared by game and service/i.
type Logger struct {
	zl *zap.Logger
}

// New creates a logger named name whose tag is printed in color. level is one of debug, info,
// warn or error.
func New(name, color string, w io.Writer, level string) (*Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeName = func(n string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%s[%s]%s", color, n, config.ColorReset))
	}
	encCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return &Logger{zl: zap.New(core).Named(name)}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Debug logs msg at debug level.
func (l *Logger) Debug(msg string) { l.zl.Debug(msg) }

// Info logs msg at info level.
func (l *Logger) Info(msg string) { l.zl.Info(msg) }

// Warning logs msg at warn level.
func (l *Logger) Warning(msg string) { l.zl.Warn(msg) }

// Error logs msg at error level.
func (l *Logger) Error(msg string) { l.zl.Error(msg) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.zl.Sync() }

// Zap exposes the underlying logger for libraries that take a *zap.Logger.
func (l *Logger) Zap() *zap.Logger { return l.zl }
