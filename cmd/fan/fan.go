package fan

import (
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

// loadGateway loads and validates the configuration and returns the IPMI
// gateway for the configured target.
func loadGateway() *ipmi.IpmiTool {
	configuration.LoadConfig()
	err := configuration.Validate()
	if err != nil {
		ui.FatalWithoutStacktrace(err.Error())
	}
	return ipmi.GatewayFor(configuration.CurrentConfig)
}
