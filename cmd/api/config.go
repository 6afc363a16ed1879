// Config loading follows the teacher's cmd/api/config.go: every value
// comes from the environment, with a small set of sane local defaults.
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/f0rbit/media-timeline/internal/platform"
)

// Config holds every environment-derived setting the API process needs.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EncryptionKey string
	DevpadURL     string

	CORS CORSConfig

	RateLimitRequests int
	RateLimitWindowS  int

	SocialBInstance string
	SystemOAuth     map[platform.Tag]OAuthEnv
}

type CORSConfig struct {
	AllowedOrigins []string
}

// OAuthEnv is a platform's system-wide OAuth client pair, read from
// <PLATFORM>_CLIENT_ID / <PLATFORM>_CLIENT_SECRET.
type OAuthEnv struct {
	ClientID     string
	ClientSecret string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// LoadConfig reads configuration from the environment. godotenv.Load is
// called by main before this runs, matching the teacher's boot sequence.
func LoadConfig() *Config {
	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", "*"), ",")

	systemOAuth := make(map[platform.Tag]OAuthEnv, len(platform.All()))
	for _, p := range platform.All() {
		prefix := strings.ToUpper(strings.ReplaceAll(string(p), "-", "_"))
		systemOAuth[p] = OAuthEnv{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		}
	}

	return &Config{
		Environment:       getenv("ENVIRONMENT", "development"),
		Port:              getenv("PORT", "8000"),
		DatabaseURL:       getenv("DATABASE_URL", "postgres://localhost:5432/media_timeline?sslmode=disable"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
		EncryptionKey:     getenv("ENCRYPTION_KEY", ""),
		DevpadURL:         getenv("DEVPAD_URL", "https://devpad.tools"),
		CORS:              CORSConfig{AllowedOrigins: origins},
		RateLimitRequests: getenvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindowS:  getenvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		SocialBInstance:   getenv("SOCIALB_INSTANCE", "https://socialb.example"),
		SystemOAuth:       systemOAuth,
	}
}
