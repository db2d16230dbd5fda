package config

import "time"

// DeploymentConfig is the sensor's TOML-backed deployment configuration:
// the serial line it reads P1 telegrams from and the HTTP surface it
// serves them over.
type DeploymentConfig struct {
	SerialDevice string `toml:"serial_device"`
	Baudrate     uint   `toml:"baudrate"`

	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	// LockTimeoutMs is W_max: the bound HTTP handlers place on store lock
	// acquisition before failing the request.
	LockTimeoutMs int `toml:"lock_timeout_ms"`

	MDNSHostname     string `toml:"mdns_hostname"`
	MDNSInstanceName string `toml:"mdns_instance_name"`
}

// LockTimeout is DeploymentConfig.LockTimeoutMs as a time.Duration.
func (c *DeploymentConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}
