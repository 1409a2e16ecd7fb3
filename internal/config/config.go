// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; required ones are enforced by must() at startup.
type Config struct {
	Env  string // application environment ("dev", "test", "prod")
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	AccessSecret  string // secret signing access tokens
	RefreshSecret string // distinct secret signing refresh tokens

	GoogleClientID     string
	GoogleClientSecret string
	AppBaseURL         string // public base URL, used to build the OAuth redirect URI

	RotateRefresh    bool // rotate the refresh token on every /auth/refresh
	LogoutAllDevices bool // logout revokes every active session, not just the presented one

	RabbitURL string // optional; empty disables event publishing
}

// Load reads configuration from the environment. Missing required variables
// abort startup with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		AccessSecret:  must("JWT_ACCESS_SECRET"),
		RefreshSecret: must("JWT_REFRESH_SECRET"),

		GoogleClientID:     must("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: must("GOOGLE_CLIENT_SECRET"),
		AppBaseURL:         must("APP_BASE_URL"),

		RotateRefresh:    boolean("AUTH_ROTATE_REFRESH"),
		LogoutAllDevices: boolean("AUTH_LOGOUT_ALL_DEVICES"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),
	}
}

// IsProd controls production-only behavior such as the Secure cookie flag.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// boolean reads an optional flag; unset or unparsable means false.
func boolean(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return v
}
