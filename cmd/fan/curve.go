package fan

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/dhazelett/iDRAC-Fan-Controller/cmd/global"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/persistence"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/guptarohit/asciigraph"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print the measured fan curve to console",
	Run: func(cmd *cobra.Command, args []string) {
		gateway := loadGateway()

		serverId := "unknown"
		info, err := gateway.ServerInfo(cmd.Context())
		if err == nil {
			serverId = info.Model
			ui.Printfln(serverId)
		}

		pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		result, err := pers.LoadCalibration(serverId)
		if err != nil {
			ui.Printfln("No fan curve data yet, run the daemon with CALIBRATE_FANS=true first...")
			return
		}

		// print table
		tab := table.Table{
			Headers: []string{"", ""},
			Rows: [][]string{
				{"Min RPM", strconv.Itoa(result.MinObservedRpm)},
				{"Max RPM", strconv.Itoa(result.MaxObservedRpm)},
				{"Calibrated", result.Timestamp.Format("2006-01-02 15:04:05")},
			},
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if tableErr != nil {
			panic(tableErr)
		}
		ui.Printfln(buf.String())

		// print graph
		keys := make([]int, 0, len(result.Sweep))
		for k := range result.Sweep {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		values := make([]float64, 0, len(keys))
		for _, k := range keys {
			values = append(values, result.Sweep[k])
		}

		caption := "RPM / duty"
		graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
		ui.Printfln(graph)
	},
}

func init() {
	Command.AddCommand(curveCmd)
}
