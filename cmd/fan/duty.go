package fan

import (
	"strconv"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/spf13/cobra"
)

var dutyCmd = &cobra.Command{
	Use:   "duty <percent>",
	Short: "Switch the fans to manual control at the given duty",
	Long:  `Switches the iDRAC to manual fan control and pins all fans at the given duty percentage (1-100).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		gateway := loadGateway()
		if err := gateway.SetCoolingMode(cmd.Context(), ipmi.CoolingModeManual); err != nil {
			return err
		}
		if err := gateway.SetFanDuty(cmd.Context(), percent); err != nil {
			return err
		}

		ui.Info("Fans set to manual control at %d%%", percent)
		return nil
	},
}

func init() {
	Command.AddCommand(dutyCmd)
}
