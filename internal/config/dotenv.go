package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DefaultDotEnvFiles is the lookup order used by LoadDotEnv when no files are given.
var DefaultDotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the given .env files (or DefaultDotEnvFiles) if present.
// godotenv.Load does not overwrite variables that are already set, so the
// process environment wins and earlier files win over later ones.
// Returns the files actually loaded.
func LoadDotEnv(files ...string) []string {
	if len(files) == 0 {
		files = DefaultDotEnvFiles
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
