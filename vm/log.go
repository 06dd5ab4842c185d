package vm

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger, a no-op until an embedder installs
// one with SetLogger. Diagnostics logged here (link resolution, trap
// detail) are never load-bearing: every fault a caller needs to act on is
// also a returned *LinkError/*TrapError.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l as the package logger. Call before Instantiate/Invoke;
// it is not safe to change concurrently with in-flight calls.
func SetLogger(l *zap.Logger) {
	logger = l
}
