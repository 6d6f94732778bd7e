// Swiftcontrol bridges an FTMS-only fitness trainer to Zwift as a Wahoo
// KICKR BIKE.
//
// It exposes a synthetic GATT tree both as a native BLE peripheral and as a
// Wahoo TNP (BLE-over-TCP) service discoverable via mDNS, so a Zwift Ride
// style handlebar controller can drive virtual shifting and incline control
// on a trainer that only speaks FTMS.
//
// Usage:
//
//	swiftcontrol serve [flags]
//
// See 'swiftcontrol serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doudar/swiftcontrol/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "swiftcontrol",
	Short: "KICKR BIKE bridge for FTMS trainers",
	Long: `Swiftcontrol makes an FTMS-only trainer appear to Zwift as a Wahoo KICKR BIKE.

The bridge serves the Wahoo TNP protocol on TCP port 36867, advertises it via
mDNS, and optionally mirrors the same GATT tree over local BLE. Zwift Ride
shifter input is translated into virtual gear changes that scale the incline
sent to the trainer.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swiftcontrol %s (commit: %s)\n", version.Version, version.Commit)
	},
}
