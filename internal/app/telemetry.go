package app

import (
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/observability"
)

// Version is reported in telemetry resources. Overridden at build time.
var Version = "dev"

// setupTelemetry initializes OpenTelemetry metrics.
func (app *Application) setupTelemetry() error {
	telemetry, err := observability.NewTelemetry(observability.ServiceName, Version)
	if err != nil {
		return err
	}

	app.telemetry = telemetry

	app.logger.Info("telemetry initialized",
		"service", observability.ServiceName,
		"version", Version,
		"metrics_enabled", true,
		"tracing_enabled", false,
	)

	return nil
}
