// Package logging builds the shared zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a production JSON logger at the given level with the
// service name attached to every entry. Development mode switches to the
// human-readable console encoder.
func New(service, level string, development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = parsed
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return log.With(zap.String("service", service)), nil
}
