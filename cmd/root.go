package cmd

import (
	"fmt"
	"os"

	"github.com/dhazelett/iDRAC-Fan-Controller/cmd/fan"
	"github.com/dhazelett/iDRAC-Fan-Controller/cmd/global"
	"github.com/dhazelett/iDRAC-Fan-Controller/cmd/sensor"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "idrac-fan-controller",
	Short: "A daemon to control the fans of Dell PowerEdge servers.",
	Long: `idrac-fan-controller keeps the fans of a Dell PowerEdge server quiet
while the CPUs are cool and hands control back to the iDRAC when they are not.`,
	// this is the default command to run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		printHeader()

		configuration.LoadConfig()
		err := configuration.Validate()
		if err != nil {
			ui.FatalWithoutStacktrace("Config Validation Error: %v", err)
			return
		}
		if configuration.CurrentConfig.EnableDebugOutput {
			ui.SetDebugEnabled(true)
		}

		internal.RunDaemon()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is $HOME/idrac-fan-controller.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(fan.Command)
	rootCmd.AddCommand(sensor.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("iDRAC", pterm.NewStyle(pterm.FgLightBlue)),
		pterm.NewLettersFromStringWithStyle("fc", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("idrac-fan-controller")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
