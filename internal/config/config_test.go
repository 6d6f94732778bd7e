package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.TCP.Port != 36867 {
		t.Errorf("default port = %d, want 36867", cfg.TCP.Port)
	}
	if cfg.TCP.MaxClients != 1 {
		t.Errorf("default max_clients = %d, want 1", cfg.TCP.MaxClients)
	}
	if !cfg.BLE.Enabled {
		t.Error("BLE disabled by default")
	}
	if cfg.Monitor.Enabled {
		t.Error("monitor enabled by default")
	}
	if cfg.Shifting.Gears != 24 {
		t.Errorf("default gears = %d, want 24", cfg.Shifting.Gears)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TCP.Port != 36867 {
		t.Errorf("port = %d, want default", cfg.TCP.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
device:
  name: Basement Trainer
  serial: AABB0011
  mac: 11-22-33-44-55-66
tcp:
  port: 36867
  max_clients: 2
shifting:
  gears: 12
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Name != "Basement Trainer" {
		t.Errorf("name = %q", cfg.Device.Name)
	}
	if cfg.TCP.MaxClients != 2 {
		t.Errorf("max_clients = %d, want 2", cfg.TCP.MaxClients)
	}
	if cfg.Shifting.Gears != 12 {
		t.Errorf("gears = %d, want 12", cfg.Shifting.Gears)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	// Unset sections keep their defaults.
	if !cfg.BLE.Enabled {
		t.Error("unset ble section lost its default")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad yaml",
			content: "device: [",
		},
		{
			name: "bad port",
			content: `
tcp:
  port: 123456
`,
		},
		{
			name: "bad mac",
			content: `
device:
  serial: X
  mac: "001122334455"
`,
		},
		{
			name: "negative max clients",
			content: `
tcp:
  port: 36867
  max_clients: -1
`,
		},
		{
			name: "too many gears",
			content: `
shifting:
  gears: 25
`,
		},
		{
			name: "negative gears",
			content: `
shifting:
  gears: -3
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() accepted invalid config")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	cfg := Default()
	cfg.Device.Serial = "FFEE0099"
	cfg.Monitor.Enabled = true

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Device.Serial != "FFEE0099" {
		t.Errorf("serial = %q, want FFEE0099", loaded.Device.Serial)
	}
	if !loaded.Monitor.Enabled {
		t.Error("monitor flag lost in round trip")
	}
}
