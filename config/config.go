package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// AppName is used as the postgres search_path schema and as the prefix for
// local cache keys.
const AppName = "tripsync"

var loadEnvOnce sync.Once

// LoadEnv loads a .env file from the working directory once per process.
// Missing files are fine; real environment variables always win.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("could not load .env file: %v", err)
			}
		}
	})
}

// Env returns the value of key, falling back to def when unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// PexelsAPIKey returns the Pexels API key. Both spellings of the variable
// are accepted because existing deployments used PIXELS_API_KEY.
func PexelsAPIKey() string {
	LoadEnv()
	if v := os.Getenv("PEXELS_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("PIXELS_API_KEY")
}

// NewsAPIKey returns the NewsAPI key, empty when not configured.
func NewsAPIKey() string {
	LoadEnv()
	return os.Getenv("NEWS_API_KEY")
}
