package cmd

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/dhazelett/iDRAC-Fan-Controller/cmd/global"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot thermal and fan overview",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()

		configuration.LoadConfig()
		if err := configuration.Validate(); err != nil {
			ui.FatalWithoutStacktrace(err.Error())
		}
		config := configuration.CurrentConfig

		gateway := ipmi.GatewayFor(config)
		reader := sensors.NewReader(gateway, config.JunctionOffset, config.PreferDirectJunction, config.FanRpmMin, config.FanRpmMax)

		if info, err := gateway.ServerInfo(cmd.Context()); err == nil {
			ui.Printfln("%s %s", info.Manufacturer, info.Model)
		}

		reading, err := reader.ReadTemperature(cmd.Context())
		if err != nil {
			ui.FatalWithoutStacktrace("Could not read temperatures: %v", err)
		}

		rows := [][]string{
			{"CPU Package", colorizeTemperature(reading.CpuPackageC, config.CpuTemperatureThreshold)},
			{"CPU Junction", colorizeTemperature(reading.CpuJunctionC, config.CpuTemperatureThreshold)},
		}
		if reading.InletC != nil {
			rows = append(rows, []string{"Inlet", formatTemperature(*reading.InletC)})
		}
		if reading.ExhaustC != nil {
			rows = append(rows, []string{"Exhaust", formatTemperature(*reading.ExhaustC)})
		}
		printTable("Temperatures", rows)

		telemetry, err := reader.ReadFanTelemetry(cmd.Context())
		if err != nil {
			ui.FatalWithoutStacktrace("Could not read fan speeds: %v", err)
		}

		fanRows := make([][]string, 0, len(telemetry.Fans))
		for _, fan := range telemetry.Fans {
			fanRows = append(fanRows, []string{
				"Fan" + strconv.Itoa(fan.FanId),
				strconv.Itoa(fan.Rpm) + " RPM",
				strconv.Itoa(telemetry.DutyEstimate(fan.Rpm)) + " %",
			})
		}
		printTable("Fans", fanRows)
	},
}

func formatTemperature(value float64) string {
	return fmt.Sprintf("%.1f °C", value)
}

func colorizeTemperature(value float64, threshold float64) string {
	text := formatTemperature(value)
	if global.NoColor {
		return text
	}
	color := ansi.ColorFunc("green")
	if value >= threshold {
		color = ansi.ColorFunc("red+b")
	} else if value >= threshold-5 {
		color = ansi.ColorFunc("yellow")
	}
	return color(text)
}

func printTable(title string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	ui.Printfln(title)
	tab := table.Table{
		Headers: make([]string, len(rows[0])),
		Rows:    rows,
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
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
