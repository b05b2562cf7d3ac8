package cmd

import (
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of idrac-fan-controller",
	Long:  `All software has versions. This is idrac-fan-controller's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln("1.1.0")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
