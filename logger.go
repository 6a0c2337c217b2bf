package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setLogger configures the global sugared logger. Messages go to stderr so
// they never mix with records written to stdout; with a log file they go
// through lumberjack rotation instead.
func setLogger(debug bool, logfile string) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var ws zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if logfile != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logfile,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     30, // days
		})
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), ws, level)
	logger = zap.New(core)
	sugar = logger.Sugar()
}
