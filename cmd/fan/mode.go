package fan

import (
	"errors"
	"fmt"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var validModes = []string{"automatic", "manual"}

var modeCmd = &cobra.Command{
	Use:   "mode <automatic|manual>",
	Short: "Set the cooling mode",
	Long: `Sets the cooling mode of the iDRAC. In automatic mode the iDRAC drives
the fans along its own thermal curve, in manual mode they stay at the last
applied duty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(validModes, args[0]) {
			return errors.New(fmt.Sprintf("Invalid mode '%s', must be one of %v", args[0], validModes))
		}

		mode := ipmi.CoolingModeAutomatic
		if args[0] == "manual" {
			mode = ipmi.CoolingModeManual
		}

		gateway := loadGateway()
		if err := gateway.SetCoolingMode(cmd.Context(), mode); err != nil {
			return err
		}

		ui.Info("Cooling mode set to %s", mode)
		return nil
	},
}

func init() {
	Command.AddCommand(modeCmd)
}
