package ipmi

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/util"
)

// Connection describes the IPMI target: the local device when Host is
// "local" (or empty), otherwise LAN access to the given iDRAC host.
type Connection struct {
	Host     string
	Username string
	Password string
	Timeout  time.Duration
}

func (c Connection) IsLocal() bool {
	return c.Host == "" || c.Host == "local"
}

// IpmiTool is a Gateway implementation that shells out to ipmitool.
type IpmiTool struct {
	connection Connection
}

func NewIpmiTool(connection Connection) *IpmiTool {
	if connection.Timeout <= 0 {
		connection.Timeout = 10 * time.Second
	}
	return &IpmiTool{
		connection: connection,
	}
}

// GatewayFor builds the gateway for the connection target of the given configuration.
func GatewayFor(config configuration.Configuration) *IpmiTool {
	return NewIpmiTool(Connection{
		Host:     config.IdracHost,
		Username: config.IdracUsername,
		Password: config.IdracPassword,
		Timeout:  config.IpmiTimeout,
	})
}

// IsLocal reports whether the gateway talks to the local IPMI device
// instead of a remote iDRAC.
func (i *IpmiTool) IsLocal() bool {
	return i.connection.IsLocal()
}

func (i *IpmiTool) connectionArgs() []string {
	if i.connection.IsLocal() {
		return []string{"-I", "open"}
	}
	return []string{
		"-I", "lanplus",
		"-H", i.connection.Host,
		"-U", i.connection.Username,
		"-P", i.connection.Password,
	}
}

func (i *IpmiTool) run(ctx context.Context, args ...string) (string, error) {
	cmdArgs := append(i.connectionArgs(), args...)
	out, err := util.SafeCmdExecution(ctx, "ipmitool", cmdArgs, i.connection.Timeout)
	if err != nil {
		return "", fmt.Errorf("%w: ipmitool %s: %s", ErrTransport, strings.Join(args, " "), err.Error())
	}
	return out, nil
}

func (i *IpmiTool) ReadTemperatures(ctx context.Context) ([]TemperatureSensor, error) {
	out, err := i.run(ctx, "sdr", "type", "temperature")
	if err != nil {
		return nil, err
	}
	return parseTemperatures(out)
}

func (i *IpmiTool) ReadFanSpeeds(ctx context.Context) ([]FanSpeed, error) {
	out, err := i.run(ctx, "sdr", "type", "fan")
	if err != nil {
		return nil, err
	}
	return parseFanSpeeds(out)
}

func (i *IpmiTool) SetFanDuty(ctx context.Context, percent int) error {
	if percent < 1 || percent > 100 {
		return fmt.Errorf("fan duty %d out of range [1..100]", percent)
	}
	ui.Debug("Setting manual fan duty to %d%%", percent)
	_, err := i.run(ctx, "raw", "0x30", "0x30", "0x02", "0xff", fmt.Sprintf("0x%02x", percent))
	return err
}

func (i *IpmiTool) SetCoolingMode(ctx context.Context, mode CoolingMode) error {
	modeArg := "0x01"
	if mode == CoolingModeManual {
		modeArg = "0x00"
	}
	ui.Debug("Setting cooling mode to %s", mode)
	_, err := i.run(ctx, "raw", "0x30", "0x30", "0x01", modeArg)
	return err
}

func (i *IpmiTool) SetThirdPartyPCIeResponse(ctx context.Context, enabled bool) error {
	responseArg := "0x00"
	if !enabled {
		responseArg = "0x01"
	}
	ui.Debug("Setting third-party PCIe cooling response to %t", enabled)
	_, err := i.run(ctx,
		"raw", "0x30", "0xce", "0x00", "0x16", "0x05", "0x00", "0x00", "0x00",
		"0x05", "0x00", responseArg, "0x00", "0x00")
	return err
}

func (i *IpmiTool) ServerInfo(ctx context.Context) (ServerInfo, error) {
	out, err := i.run(ctx, "fru")
	if err != nil {
		return ServerInfo{}, err
	}
	return parseServerInfo(out)
}

var (
	degreesPattern = regexp.MustCompile(`(\d+)\s+degrees`)
	fanRpmPattern  = regexp.MustCompile(`^Fan\s?(\d+)[^|]*\|[^|]+\|[^|]+\|[^|]+\|\s*(\d+)\s*RPM`)
)

// parseTemperatures extracts sensor readings from "sdr type temperature"
// output. Each reading line looks like:
//
//	Inlet Temp | 04h | ok | 7.1 | 24 degrees C
//
// where the fourth column is the entity id ("3.1" for CPU 1).
func parseTemperatures(out string) ([]TemperatureSensor, error) {
	var sensors []TemperatureSensor
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "degrees") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 5 {
			continue
		}
		valueMatch := degreesPattern.FindStringSubmatch(fields[4])
		if valueMatch == nil {
			continue
		}
		value, err := strconv.ParseFloat(valueMatch[1], 64)
		if err != nil {
			continue
		}
		sensors = append(sensors, TemperatureSensor{
			Name:     strings.TrimSpace(fields[0]),
			EntityId: strings.TrimSpace(fields[3]),
			Value:    value,
		})
	}

	if len(sensors) == 0 {
		return nil, fmt.Errorf("%w: no temperature readings in sdr output", ErrParse)
	}
	return sensors, nil
}

// parseFanSpeeds extracts per-fan RPM readings from "sdr type fan" output,
// skipping non-RPM lines like "Fan Redundancy". The result is ordered by fan id.
func parseFanSpeeds(out string) ([]FanSpeed, error) {
	var fans []FanSpeed
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "RPM") || strings.Contains(line, "Fan Redundancy") {
			continue
		}
		match := fanRpmPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		fanId, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		rpm, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		fans = append(fans, FanSpeed{FanId: fanId, Rpm: rpm})
	}

	if len(fans) == 0 {
		return nil, fmt.Errorf("%w: no fan readings in sdr output", ErrParse)
	}

	sort.Slice(fans, func(a, b int) bool {
		return fans[a].FanId < fans[b].FanId
	})
	return fans, nil
}

// parseServerInfo extracts the board manufacturer and product from "fru" output.
func parseServerInfo(out string) (ServerInfo, error) {
	info := ServerInfo{}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Board Mfg") && !strings.Contains(line, "Date") && info.Manufacturer == "" {
			info.Manufacturer = valueAfterColon(line)
		} else if strings.Contains(line, "Board Product") && info.Model == "" {
			info.Model = valueAfterColon(line)
		}
	}

	if info.Manufacturer == "" && info.Model == "" {
		return ServerInfo{}, fmt.Errorf("%w: no board info in fru output", ErrParse)
	}
	return info, nil
}

func valueAfterColon(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
