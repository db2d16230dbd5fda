package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kwartiwi/p1sensor/pkg/pathing"
)

// Active is the configuration loaded by Load, read by every other package
// that needs deployment settings.
var Active *DeploymentConfig

// Load reads the deployment config from disk, writing a default file first
// if none exists yet.
func Load() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "p1sensor.toml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &DeploymentConfig{
			SerialDevice:     "/dev/ttyUSB0",
			Baudrate:         115200,
			ListenAddress:    "0.0.0.0",
			ListenPort:       80,
			LockTimeoutMs:    500,
			MDNSHostname:     "p1sensor",
			MDNSInstanceName: "p1sensor",
		}
		if err := os.MkdirAll(pathing.GetConfigDir(), 0755); err != nil {
			return err
		}
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(cfg); err != nil {
			return err
		}
		Active = cfg
		return nil
	}

	var cfg DeploymentConfig
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return err
	}
	Active = &cfg
	return nil
}
