package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Load reads a .env file into the process environment when one is present.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// GetDuration parses the environment value for key as a duration, or returns fallback.
func GetDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s: %v", key, val, fallback, err)
		return fallback
	}
	return d
}
