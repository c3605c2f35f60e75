package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerAddr string
	AdminURL   string
	AdminToken string
	Output     string
	Timeout    time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: getEnvOrDefault("LIGHTSCTL_SERVER", "localhost:5555"),
		AdminURL:   getEnvOrDefault("LIGHTSCTL_ADMIN", "http://localhost:8080"),
		AdminToken: os.Getenv("LIGHTSCTL_TOKEN"),
		Output:     "text",
		Timeout:    10 * time.Second,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
