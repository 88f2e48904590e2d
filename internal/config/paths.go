package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/stormlightlabs/memoria/internal/cache"
)

const dbExt = ".db"

// ConfigDir returns the XDG configuration directory.
func ConfigDir() (string, error) {
	return cache.ConfigDir()
}

// ResolveDatabasePath maps a --database value to a file path.
//
// "" and "default" mean MEMORIA_DB when set, else database.default from the
// config file. Absolute paths and anything containing a separator are used
// as given. A bare name becomes <data dir>/<name>.db.
func ResolveDatabasePath(nameOrPath string) (string, error) {
	switch {
	case nameOrPath == "" || nameOrPath == "default":
		if env := os.Getenv("MEMORIA_DB"); env != "" {
			return env, nil
		}
		cfg, err := Load()
		if err != nil {
			return "", err
		}
		return cfg.Database.Default, nil
	case filepath.IsAbs(nameOrPath), strings.ContainsRune(nameOrPath, filepath.Separator):
		return nameOrPath, nil
	}

	dataDir, err := cache.DataDir()
	if err != nil {
		return "", err
	}
	if filepath.Ext(nameOrPath) == "" {
		nameOrPath += dbExt
	}
	return filepath.Join(dataDir, nameOrPath), nil
}

// GetDefaultDatabase returns the path to the default database.
func GetDefaultDatabase() (string, error) {
	return ResolveDatabasePath("default")
}
