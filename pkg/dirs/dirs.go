package dirs

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "rzk"

// GetDataDir returns the path to the data directory, creating it if it doesn't exist.
func GetDataDir() (string, error) {
	var dataDir string

	configDir, err := os.UserConfigDir()
	if err == nil {
		dataDir = filepath.Join(configDir, appName)
	} else {
		// Fallback to executable location
		exePath, err := os.Executable()
		if err == nil {
			dataDir = filepath.Join(filepath.Dir(exePath), appName+"-data")
		}
	}

	if dataDir == "" {
		return "", fmt.Errorf("failed to find data directory path")
	}

	err = os.MkdirAll(dataDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// ConfigPath returns the config file to use: custom if set, otherwise the
// config file in the data directory.
func ConfigPath(custom, fileName string) (string, error) {
	if custom != "" {
		return custom, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, fileName), nil
}
