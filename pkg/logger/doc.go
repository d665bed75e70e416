// Package logger provides structured logging for the visearch service.
//
// It wraps Uber's Zap logger behind a small interface that other packages
// depend on locally, so infrastructure packages stay decoupled from the
// concrete implementation.
//
// Basic Usage:
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	log.Info("product ingested", nil, map[string]interface{}{
//		"product_id": "product_001",
//		"category":   "Home",
//	})
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		// ... other modules
//	)
//	app.Run()
//
// Configuration:
//
//	LOG_LEVEL=debug           # Log level (debug, info, warning, error)
//	LOG_SERVICE_NAME=visearch # Initial "service" field on every entry
//
// Thread Safety:
//
// All methods on the Logger are safe for concurrent use by multiple goroutines.
package logger
