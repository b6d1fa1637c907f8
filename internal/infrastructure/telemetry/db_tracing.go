package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin so every query is
// reported as a child span. Query variables are always excluded.
func RegisterDBTracing(db *gorm.DB, enabled bool, logger *zap.Logger) error {
	if !enabled {
		logger.Debug("database tracing disabled, skipping otelgorm registration")
		return nil
	}

	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName("posvenda"),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}

	logger.Info("database tracing enabled")
	return nil
}
