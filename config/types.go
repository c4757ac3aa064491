package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=memory postgres"`
	DSN    string `yaml:"dsn"`
}

// EventsConfig configures the NATS mutation-event publisher. An empty URL
// disables publishing.
type EventsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
}
