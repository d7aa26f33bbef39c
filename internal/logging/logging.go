// Package logging builds the zap logger shared by the CLI. Logs go to the
// supplied writer (stderr in production) so stdout carries only the report.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	Verbose bool
	Color   bool
}

// New returns a console logger writing to w. Verbose enables debug level and
// caller annotations; otherwise only warnings and errors are written.
func New(w io.Writer, opts Options) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.Color {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zap.WarnLevel
	zapOpts := []zap.Option{}
	if opts.Verbose {
		level = zap.DebugLevel
		zapOpts = append(zapOpts, zap.AddCaller())
	} else {
		encCfg.EncodeCaller = nil
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zapOpts...)
}
