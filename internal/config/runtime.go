package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("CHORUS_RUNTIME_PATH"))
}

func resolveRuntimePath(path string) string {
	if path == "" {
		path = ".chorus"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

func GetEnvPath() string {
	return filepath.Join(GetRuntimePath(), ".env")
}

// LoadEnv loads the runtime .env file without overriding variables that
// are already set. A missing file is not an error.
func LoadEnv() error {
	err := godotenv.Load(GetEnvPath())
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", GetEnvPath(), err)
}

// IsDebug reports CHORUS_DEBUG before any config struct is parsed, so the
// logger can be set up first.
func IsDebug() bool {
	switch os.Getenv("CHORUS_DEBUG") {
	case "1", "true", "TRUE", "yes":
		return true
	}
	return false
}
