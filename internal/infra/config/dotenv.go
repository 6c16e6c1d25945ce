package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultDotEnvPath is read when LoadDotEnv gets no paths.
const DefaultDotEnvPath = ".env"

// LoadDotEnv preloads variables from the given .env files into the process
// environment, or from DefaultDotEnvPath in the working directory when no
// paths are given. Variables that are already set win; missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultDotEnvPath}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}
