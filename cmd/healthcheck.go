package cmd

import (
	"context"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// healthcheckCmd verifies that a temperature reading can be taken through
// the configured IPMI target. Intended as a container HEALTHCHECK: silent,
// exit code only.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the IPMI connection works",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		configuration.LoadConfig()
		if err := configuration.Validate(); err != nil {
			return err
		}
		config := configuration.CurrentConfig

		gateway := ipmi.GatewayFor(config)
		reader := sensors.NewReader(gateway, config.JunctionOffset, config.PreferDirectJunction, config.FanRpmMin, config.FanRpmMax)

		ctx, cancel := context.WithTimeout(cmd.Context(), config.IpmiTimeout)
		defer cancel()

		_, err := reader.ReadTemperature(ctx)
		return err
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
