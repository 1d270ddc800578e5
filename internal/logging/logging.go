// Package logging builds the zap logger shared by the binaries.
package logging

import "go.uber.org/zap"

// New returns a production logger for prod environments and a development
// logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must is New that falls back to a no-op logger on error.
func Must(env string) *zap.Logger {
	logger, err := New(env)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
