package config

import "os"

// Config holds server configuration.
type Config struct {
	Port          string
	LogLevel      string
	ArchiveDriver string // "sqlite", "postgres" or "memory"
	ArchiveDSN    string
	RedisAddr     string // empty means in-process rate limiting
	RedisPassword string
	OTLPEndpoint  string // empty disables telemetry export
	ProfilePath   string
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	driver := os.Getenv("ARCHIVE_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	dsn := os.Getenv("ARCHIVE_DSN")
	if dsn == "" {
		dsn = "file:warden.db?cache=shared"
	}

	profile := os.Getenv("PROFILE_PATH")
	if profile == "" {
		profile = "warden.yaml"
	}

	return &Config{
		Port:          port,
		LogLevel:      logLevel,
		ArchiveDriver: driver,
		ArchiveDSN:    dsn,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ProfilePath:   profile,
	}
}
