// Package applog constructs the process-wide zap logger and the handful of
// request-scoped field helpers the HTTP layer uses.
package applog

import (
	"go.uber.org/zap"
)

// New builds a production zap logger, falling back to zap's example logger
// if production config construction fails (it practically never does, but
// zap's constructor still returns an error that must be handled).
func New() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewExample()
	}
	return logger.Sugar()
}

// WithEndpoint returns a logger annotated with an endpoint name, used at
// the start of every handler.
func WithEndpoint(base *zap.SugaredLogger, endpoint string) *zap.SugaredLogger {
	return base.With("endpoint", endpoint)
}
