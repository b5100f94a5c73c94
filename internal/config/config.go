package config

import "os"

// Config is the process configuration, sourced from the environment.
// DBSource is optional: when empty the service runs on in-memory storage,
// which is the mode integration tests and local demos use.
type Config struct {
	ServiceName string
	Env         string
	Port        string
	DBSource    string
}

func Load() *Config {
	return &Config{
		ServiceName: getenvDefault("SERVICE_NAME", "library-lending"),
		Env:         getenvDefault("ENV", "dev"),
		Port:        getenvDefault("SERVER_PORT", "8080"),
		DBSource:    os.Getenv("DB_SOURCE"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
