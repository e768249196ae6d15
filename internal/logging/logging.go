// Package logging configures the application-wide structured logger.
//
// By default logging is discarded so the terminal UI is never disturbed
// by stray output; passing a path via Init (the CLI's -d/--debug flag)
// switches to a JSON file sink at debug level.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Init redirects logging to the file at path, appending JSON lines at
// debug level. It is safe to call at most once at startup; subsequent
// calls replace the sink.
func Init(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(f),
		zapcore.DebugLevel,
	)

	mu.Lock()
	log = zap.New(core).Sugar()
	mu.Unlock()
	return nil
}

// L returns the current sugared logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = L().Sync()
}
