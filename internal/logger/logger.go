// Package logger provides the process-wide structured logger used by every
// component of the collaboration server.
package logger

import (
	"errors"
	"flag"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variable name for log level configuration.
const envLogLevel = "VFV_LOG_LEVEL"

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	global      *zap.Logger
	initOnce    sync.Once

	flagLevel = flag.String("log.level", "", "log level (debug, info, warn, error)")

	// generation counts UseWriter swaps. Sub-loggers obtained from Named()
	// before a swap keep writing to the writer they were built with.
	generation int64
)

// Init initializes the global logger. Safe to call multiple times; the first
// call wins except SetLevel/UseWriter which mutate state intentionally.
func Init() {
	initOnce.Do(func() {
		atomicLevel.SetLevel(detectLevel())
		global = buildLogger(zapcore.AddSync(os.Stdout))
	})
}

func buildLogger(ws zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), ws, atomicLevel)
	return zap.New(core)
}

// detectLevel resolves the initial log level from (precedence high→low):
//  1. command-line flag -log.level
//  2. environment variable VFV_LOG_LEVEL
//  3. default (info)
func detectLevel() zapcore.Level {
	if *flagLevel == "" {
		for _, arg := range os.Args[1:] {
			if strings.HasPrefix(arg, "-log.level=") {
				parts := strings.SplitN(arg, "=", 2)
				if len(parts) == 2 {
					*flagLevel = parts[1]
				}
			}
		}
	}
	if lvl, ok := parseLevel(strings.TrimSpace(*flagLevel)); ok {
		return lvl
	}
	if env := os.Getenv(envLogLevel); env != "" {
		if lvl, ok := parseLevel(env); ok {
			return lvl
		}
	}
	return zap.InfoLevel
}

func parseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel, true
	case "info", "":
		return zap.InfoLevel, true
	case "warn", "warning":
		return zap.WarnLevel, true
	case "error", "err":
		return zap.ErrorLevel, true
	}
	return 0, false
}

// SetLevel changes the runtime log level.
func SetLevel(level string) error {
	Init()
	lvl, ok := parseLevel(level)
	if !ok {
		return errors.New("invalid log level: " + level)
	}
	atomicLevel.SetLevel(lvl)
	return nil
}

// Level returns the current runtime level as a string.
func Level() string {
	Init()
	return atomicLevel.Level().String()
}

// UseWriter swaps the output writer (intended for tests). Retains current level.
func UseWriter(ws zapcore.WriteSyncer) {
	Init()
	global = buildLogger(ws)
	atomic.AddInt64(&generation, 1)
}

// Logger returns the global *zap.Logger (ensures Init was called).
func Logger() *zap.Logger { Init(); return global }

// Named returns a sub-logger scoped to the given component name, e.g.
// logger.Named("world") or logger.Named("broadcast").
func Named(component string) *zap.Logger { return Logger().Named(component) }

// WithConn attaches connection identity fields.
func WithConn(l *zap.Logger, connID, peerAddr string) *zap.Logger {
	return l.With(zap.String("conn_id", connID), zap.String("peer_addr", peerAddr))
}
