package tracer

// Config controls OpenTelemetry tracing.
type Config struct {
	// ServiceName identifies this service in trace backends.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv tags spans with the deployment environment,
	// e.g. "development" or "production".
	AppEnv string `yaml:"app_env" envconfig:"TRACER_APP_ENV"`

	// EnableExport turns on the OTLP/HTTP exporter. The exporter endpoint
	// is taken from the standard OTEL_EXPORTER_OTLP_* environment
	// variables. When false, spans are created but never exported.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`
}

func DefaultConfig() *Config {
	return &Config{
		ServiceName: "visearch",
		AppEnv:      "development",
	}
}
