package fan

import (
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/spf13/cobra"
)

// resetCmd returns the server to its stock cooling behavior, useful after a
// crashed daemon left the fans in manual mode.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore automatic cooling and the default PCIe cooling response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway := loadGateway()

		if err := gateway.SetCoolingMode(cmd.Context(), ipmi.CoolingModeAutomatic); err != nil {
			return err
		}
		ui.Info("Cooling handed back to the iDRAC")

		info, err := gateway.ServerInfo(cmd.Context())
		if err != nil {
			ui.Warning("Could not read server info, skipping PCIe cooling response: %v", err)
			return nil
		}
		if info.IsGen14OrNewer() {
			return nil
		}

		if err := gateway.SetThirdPartyPCIeResponse(cmd.Context(), true); err != nil {
			return err
		}
		ui.Info("Third-party PCIe card default cooling response restored")
		return nil
	},
}

func init() {
	Command.AddCommand(resetCmd)
}
