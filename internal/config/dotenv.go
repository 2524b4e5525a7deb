package config

import (
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/o365-cli/internal/filex"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// LoadDotenv loads .env files from the config directory and the working
// directory. Variables already present in the environment are never
// overridden. It returns the files that were loaded.
func LoadDotenv(dirs ...string) []string {
	if len(dirs) == 0 {
		dirs = []string{Dir(), "."}
	}

	var loaded []string
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if !filex.Exists(path) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("config: failed to load %s: %v", path, err)
			continue
		}
		logger.Debug("config: loaded environment from %s", path)
		loaded = append(loaded, path)
	}
	return loaded
}
