// Package config loads CLI settings from the environment, optionally
// seeded from a .env file. Library packages never read the environment;
// they take functional options built from this Config.
package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the CLI configuration.
type Config struct {
	DBPath string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	Workers         int
	PreserveModTime bool
	BackupSuffix    string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load reads the .env files (if any; existing variables win) and the
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	workers := getEnvInt("AUDIOLIB_WORKERS", runtime.NumCPU())
	if workers < 1 {
		workers = 1
	}

	return &Config{
		DBPath:          getEnv("AUDIOLIB_DB", "audiolib.db"),
		LogLevel:        getEnv("AUDIOLIB_LOG_LEVEL", "info"),
		LogFile:         getEnv("AUDIOLIB_LOG_FILE", ""),
		LogMaxSizeMB:    getEnvInt("AUDIOLIB_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups:   getEnvInt("AUDIOLIB_LOG_MAX_BACKUPS", 3),
		Workers:         workers,
		PreserveModTime: getEnvBool("AUDIOLIB_PRESERVE_MODTIME", false),
		BackupSuffix:    getEnv("AUDIOLIB_BACKUP_SUFFIX", ""),
	}, nil
}
