package fan

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rpmCmd = &cobra.Command{
	Use:   "rpm",
	Short: "Get the current RPM reading of every fan",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		gateway := loadGateway()
		fans, err := gateway.ReadFanSpeeds(cmd.Context())
		if err != nil {
			return err
		}

		for _, fan := range fans {
			fmt.Printf("Fan%d %d\n", fan.FanId, fan.Rpm)
		}
		return nil
	},
}

func init() {
	Command.AddCommand(rpmCmd)
}
