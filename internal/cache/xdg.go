package cache

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "memoria"

// baseDir resolves one XDG base directory. MEMORIA_HOME replaces all of them
// with subdirectories of a single root, which keeps tests and portable
// installs self-contained.
func baseDir(sub, xdgEnv string, unixDefault []string, darwinDefault []string) (string, error) {
	if homeOverride := os.Getenv("MEMORIA_HOME"); homeOverride != "" {
		return filepath.Join(homeOverride, sub), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(append([]string{home}, darwinDefault...)...), nil
	}

	if dir := os.Getenv(xdgEnv); dir != "" {
		return filepath.Join(dir, appName), nil
	}

	return filepath.Join(append([]string{home}, unixDefault...)...), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/memoria or ~/.config/memoria.
// On macOS it is ~/Library/Application Support/memoria.
func ConfigDir() (string, error) {
	return baseDir("config", "XDG_CONFIG_HOME",
		[]string{".config", appName},
		[]string{"Library", "Application Support", appName})
}

// DataDir returns $XDG_DATA_HOME/memoria or ~/.local/share/memoria.
func DataDir() (string, error) {
	return baseDir("data", "XDG_DATA_HOME",
		[]string{".local", "share", appName},
		[]string{"Library", "Application Support", appName})
}

// CacheDir returns $XDG_CACHE_HOME/memoria or ~/.cache/memoria.
func CacheDir() (string, error) {
	return baseDir("cache", "XDG_CACHE_HOME",
		[]string{".cache", appName},
		[]string{"Library", "Caches", appName})
}
