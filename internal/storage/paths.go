// Package storage persists game sessions in a badger database.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName    = "duckplay"
	dataDirEnv = "DUCKPLAY_DATA_DIR"
	sessionDir = "sessions"
)

// GetDataDir returns the directory duckplay keeps its files in, creating
// it if needed. $DUCKPLAY_DATA_DIR wins over the platform default:
//
//	darwin   ~/Library/Application Support/duckplay
//	windows  %APPDATA%\duckplay
//	other    $XDG_DATA_HOME/duckplay or ~/.local/share/duckplay
func GetDataDir() (string, error) {
	dir := os.Getenv(dataDirEnv)
	if dir == "" {
		base, err := platformDataHome()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appName)
	}
	return dir, os.MkdirAll(dir, 0o755)
}

// platformDataHome is the per-user application data root of the OS.
func platformDataHome() (string, error) {
	var env string
	var fallback []string
	switch runtime.GOOS {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		env, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// GetDatabaseDir returns the badger directory under GetDataDir.
func GetDatabaseDir() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, sessionDir)
	return dir, os.MkdirAll(dir, 0o755)
}
