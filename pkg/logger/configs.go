package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

type Config struct {
	// Minimum level that gets emitted. One of: debug, info, warning, error.
	Level string `yaml:"level" envconfig:"LOG_LEVEL"`

	// ServiceName is stamped on every log line as an initial field.
	ServiceName string `yaml:"service_name" envconfig:"LOG_SERVICE_NAME"`
}
