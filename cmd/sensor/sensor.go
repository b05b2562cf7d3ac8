package sensor

import (
	"fmt"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sensorName string

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Sensor related commands",
	Long:             ``,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		configuration.LoadConfig()
		err := configuration.Validate()
		if err != nil {
			ui.FatalWithoutStacktrace("%v", err)
		}

		gateway := ipmi.GatewayFor(configuration.CurrentConfig)
		readings, err := gateway.ReadTemperatures(cmd.Context())
		if err != nil {
			return err
		}

		if sensorName == "" {
			for _, reading := range readings {
				fmt.Printf("%s %d\n", reading.Name, int(reading.Value))
			}
			return nil
		}

		availableSensorNames := []string{}
		for _, reading := range readings {
			availableSensorNames = append(availableSensorNames, reading.Name)
			if reading.Name == sensorName {
				fmt.Printf("%d", int(reading.Value))
				return nil
			}
		}

		return fmt.Errorf("no sensor with name found: %s, options: %s", sensorName, availableSensorNames)
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorName,
		"name", "n",
		"",
		"Sensor name as reported by the iDRAC",
	)
}
