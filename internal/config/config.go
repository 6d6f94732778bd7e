package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the bridge configuration file.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	TCP      TCPConfig      `yaml:"tcp"`
	BLE      BLEConfig      `yaml:"ble"`
	Shifting ShiftingConfig `yaml:"shifting"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	// LogLevel controls zap verbosity: debug, info, warn, error. Empty
	// defers to the SWIFTCONTROL_LOG_LEVEL environment variable.
	LogLevel string `yaml:"log_level,omitempty"`
}

// DeviceConfig is the identity the bridge presents to the network.
type DeviceConfig struct {
	// Name is the advertised device name.
	Name string `yaml:"name"`
	// Serial appears in the mDNS instance name and TXT records.
	Serial string `yaml:"serial"`
	// MAC is the dash-separated address published in TXT.
	MAC string `yaml:"mac"`
}

// TCPConfig configures the TNP listener.
type TCPConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port"`
	MaxClients int    `yaml:"max_clients"`
}

// BLEConfig toggles the native BLE peripheral.
type BLEConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ShiftingConfig configures the virtual drivetrain.
type ShiftingConfig struct {
	// Gears is the virtual gear count. The ratio table starts at 0.50 and
	// steps by 0.05 per gear, so counts above 24 would exceed the
	// hardware's 1.65 top ratio.
	Gears int `yaml:"gears"`
}

// MonitorConfig configures the optional frame-monitor endpoint.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}-){5}[0-9A-Fa-f]{2}$`)

// Default returns a configuration with working defaults: the fixed TNP port,
// a single-client cap and BLE enabled.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:   "KICKR BIKE PRO",
			Serial: "2207A1B2",
			MAC:    "00-11-22-33-44-55",
		},
		TCP: TCPConfig{
			Port:       36867,
			MaxClients: 1,
		},
		BLE: BLEConfig{
			Enabled: true,
		},
		Shifting: ShiftingConfig{
			Gears: 24,
		},
		Monitor: MonitorConfig{
			Addr: "127.0.0.1:8337",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "swiftcontrol", "config.yaml"), nil
}

// Load reads a configuration file, filling unset fields from the defaults. A
// missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.TCP.Port < 1 || c.TCP.Port > 65535 {
		return fmt.Errorf("invalid tcp port %d", c.TCP.Port)
	}
	if c.TCP.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1, got %d", c.TCP.MaxClients)
	}
	if c.Device.Serial == "" {
		return fmt.Errorf("device serial must not be empty")
	}
	if c.Device.MAC != "" && !macPattern.MatchString(c.Device.MAC) {
		return fmt.Errorf("invalid mac address %q (want dash-separated, e.g. 00-11-22-33-44-55)", c.Device.MAC)
	}
	if c.Shifting.Gears < 1 || c.Shifting.Gears > 24 {
		return fmt.Errorf("gears must be between 1 and 24, got %d", c.Shifting.Gears)
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return fmt.Errorf("monitor enabled but no addr configured")
	}
	return nil
}
