// Package pathing centralizes the firmware's on-disk layout: its
// deployment config directory and its non-volatile config database.
package pathing

import (
	"log"
	"os"
	"path/filepath"
)

func init() {
	for _, dir := range []string{GetDataDir()} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatal(err)
			}
		}
	}
}

// GetNVConfigDbPath returns the path to the persistent key/value
// configuration database.
func GetNVConfigDbPath() string {
	return filepath.Join(GetDataDir(), "p1sensor-nvconfig.db")
}

// GetDataDir returns the directory holding mutable runtime state.
func GetDataDir() string {
	return "/var/lib/p1sensor"
}

// GetConfigDir returns the directory holding deployment configuration.
func GetConfigDir() string {
	return "/etc/p1sensor"
}

// GetWebRootDir returns the directory the static frontend is served from.
func GetWebRootDir() string {
	return "/var/lib/p1sensor/www"
}
