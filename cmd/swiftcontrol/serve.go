package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doudar/swiftcontrol/internal/bridge"
	"github.com/doudar/swiftcontrol/internal/config"
	"github.com/doudar/swiftcontrol/internal/logging"
)

// Serve command flags
var (
	configPath  string
	deviceName  string
	serial      string
	macAddress  string
	port        int
	maxClients  int
	gears       int
	logLevel    string
	noBLE       bool
	monitorAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge",
	Long: `Start the KICKR BIKE bridge.

The bridge listens for Wahoo TNP connections on the configured TCP port,
publishes itself via mDNS as a KICKR BIKE PRO, and (unless disabled) exposes
the same GATT tree as a local BLE peripheral.`,
	Example: `  # Start with defaults
  swiftcontrol serve

  # Custom identity, verbose logging
  swiftcontrol serve --serial 2301C4D9 --log-level debug

  # TNP only, with the frame monitor for protocol analysis
  swiftcontrol serve --no-ble --monitor 127.0.0.1:8337`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/swiftcontrol/config.yaml)")
	serveCmd.Flags().StringVar(&deviceName, "name", "", "Advertised device name")
	serveCmd.Flags().StringVar(&serial, "serial", "", "Device serial number")
	serveCmd.Flags().StringVar(&macAddress, "mac", "", "Device MAC address (dash-separated)")
	serveCmd.Flags().IntVar(&port, "port", 0, "TNP TCP port")
	serveCmd.Flags().IntVar(&maxClients, "max-clients", 0, "Maximum concurrent TNP sessions")
	serveCmd.Flags().IntVar(&gears, "gears", 0, "Virtual gear count (1-24)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&noBLE, "no-ble", false, "Disable the local BLE peripheral")
	serveCmd.Flags().StringVar(&monitorAddr, "monitor", "", "Enable the frame monitor on this address")
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Flags override file values.
	if deviceName != "" {
		cfg.Device.Name = deviceName
	}
	if serial != "" {
		cfg.Device.Serial = serial
	}
	if macAddress != "" {
		cfg.Device.MAC = macAddress
	}
	if port != 0 {
		cfg.TCP.Port = port
	}
	if maxClients != 0 {
		cfg.TCP.MaxClients = maxClients
	}
	if gears != 0 {
		cfg.Shifting.Gears = gears
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noBLE {
		cfg.BLE.Enabled = false
	}
	if monitorAddr != "" {
		cfg.Monitor.Enabled = true
		cfg.Monitor.Addr = monitorAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	b, err := bridge.New(bridge.Options{Config: cfg})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return b.Run(ctx)
}
