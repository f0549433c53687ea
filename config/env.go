package config

import (
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads dir/.env if present. Variables already set in the
// environment are left untouched.
func LoadDotEnv(dir string) {
	path := filepath.Join(dir, ".env")
	if !FileExists(path) {
		return
	}
	if err := godotenv.Load(path); err != nil {
		DebugLog.Debugf("[Config] failed to load %s: %v", path, err)
	}
}
