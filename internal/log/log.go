package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLog builds the console logger used by the binaries.
func InitLog(lvl zap.AtomicLevel) *zap.Logger {
	loggerCfg := &zap.Config{
		Level:    lvl,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "severity",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	plain, err := loggerCfg.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}

	return plain
}

// ParseLevel turns a level name into an atomic level, falling back to info.
func ParseLevel(s string) zap.AtomicLevel {
	lvl, err := zap.ParseAtomicLevel(s)
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return lvl
}
