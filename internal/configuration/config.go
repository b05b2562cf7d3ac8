package configuration

import (
	"os"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Configuration struct {
	IdracHost     string `json:"idracHost"`
	IdracUsername string `json:"idracUsername"`
	IdracPassword string `json:"-"`

	FanSpeed    int `json:"fanSpeed"`
	FanSpeedMax int `json:"fanSpeedMax"`

	CpuTemperatureThreshold float64       `json:"cpuTemperatureThreshold"`
	CheckInterval           time.Duration `json:"checkInterval"`

	FanRpmMin int `json:"fanRpmMin"`
	FanRpmMax int `json:"fanRpmMax"`

	DisableThirdPartyPcieCooling  bool `json:"disableThirdPartyPcieCooling"`
	KeepThirdPartyPcieStateOnExit bool `json:"keepThirdPartyPcieStateOnExit"`

	CalibrateFans bool `json:"calibrateFans"`

	EnableDebugOutput    bool `json:"enableDebugOutput"`
	EnableDynamicUpdates bool `json:"enableDynamicUpdates"`

	JunctionOffset       float64 `json:"junctionOffset"`
	PreferDirectJunction bool    `json:"preferDirectJunction"`
	TemperatureSource    string  `json:"temperatureSource"`

	IpmiTimeout time.Duration `json:"ipmiTimeout"`

	DbPath     string `json:"dbPath"`
	StatusFile string `json:"statusFile"`

	Statistics StatisticsConfig `json:"statistics"`
	Api        ApiConfig        `json:"api"`
}

const (
	TemperatureSourcePackage  = "package"
	TemperatureSourceJunction = "junction"
)

var CurrentConfig Configuration

// InitConfig reads in the (optional) config file and the environment variables
// of the container interface (IDRAC_HOST, FAN_SPEED, ...).
func InitConfig(cfgFile string) {
	viper.SetConfigName("idrac-fan-controller")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/idrac-fan-controller/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	bindEnvironment()
	setDefaultValues()

	if err := viper.ReadInConfig(); err != nil {
		// the environment variable surface is a complete configuration
		// interface on its own, so a missing config file is fine
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			ui.Fatal("Error reading config file, %s", err)
		}
	}
}

// bindEnvironment maps the documented environment variable names onto
// their configuration keys.
func bindEnvironment() {
	_ = viper.BindEnv("IdracHost", "IDRAC_HOST")
	_ = viper.BindEnv("IdracUsername", "IDRAC_USERNAME")
	_ = viper.BindEnv("IdracPassword", "IDRAC_PASSWORD")
	_ = viper.BindEnv("FanSpeed", "FAN_SPEED")
	_ = viper.BindEnv("FanSpeedMax", "FAN_SPEED_MAX")
	_ = viper.BindEnv("CpuTemperatureThreshold", "CPU_TEMPERATURE_THRESHOLD")
	_ = viper.BindEnv("CheckInterval", "CHECK_INTERVAL")
	_ = viper.BindEnv("FanRpmMin", "FAN_RPM_MIN")
	_ = viper.BindEnv("FanRpmMax", "FAN_RPM_MAX")
	_ = viper.BindEnv("DisableThirdPartyPcieCooling", "DISABLE_THIRD_PARTY_PCIE_CARD_DELL_DEFAULT_COOLING_RESPONSE")
	_ = viper.BindEnv("KeepThirdPartyPcieStateOnExit", "KEEP_THIRD_PARTY_PCIE_CARD_COOLING_RESPONSE_STATE_ON_EXIT")
	_ = viper.BindEnv("CalibrateFans", "CALIBRATE_FANS")
	_ = viper.BindEnv("EnableDebugOutput", "ENABLE_DEBUG_OUTPUT")
	_ = viper.BindEnv("EnableDynamicUpdates", "ENABLE_DYNAMIC_UPDATES")
	_ = viper.BindEnv("JunctionOffset", "JUNCTION_OFFSET")
	_ = viper.BindEnv("PreferDirectJunction", "PREFER_DIRECT_JUNCTION")
	_ = viper.BindEnv("TemperatureSource", "TEMPERATURE_SOURCE")
	_ = viper.BindEnv("IpmiTimeout", "IPMI_TIMEOUT")
	_ = viper.BindEnv("DbPath", "DB_PATH")
	_ = viper.BindEnv("StatusFile", "STATUS_FILE")
	_ = viper.BindEnv("Statistics.Enabled", "STATISTICS_ENABLED")
	_ = viper.BindEnv("Statistics.Port", "STATISTICS_PORT")
	_ = viper.BindEnv("Api.Enabled", "API_ENABLED")
	_ = viper.BindEnv("Api.Port", "API_PORT")
}

func setDefaultValues() {
	viper.SetDefault("IdracHost", "local")
	viper.SetDefault("IdracUsername", "root")
	viper.SetDefault("IdracPassword", "calvin")
	viper.SetDefault("FanSpeed", 25)
	viper.SetDefault("FanSpeedMax", 100)
	viper.SetDefault("CpuTemperatureThreshold", 60)
	viper.SetDefault("CheckInterval", 15*time.Second)
	viper.SetDefault("FanRpmMin", 2500)
	viper.SetDefault("FanRpmMax", 12000)
	viper.SetDefault("DisableThirdPartyPcieCooling", false)
	viper.SetDefault("KeepThirdPartyPcieStateOnExit", false)
	viper.SetDefault("CalibrateFans", false)
	viper.SetDefault("EnableDebugOutput", false)
	viper.SetDefault("EnableDynamicUpdates", true)
	viper.SetDefault("JunctionOffset", 15)
	viper.SetDefault("PreferDirectJunction", true)
	viper.SetDefault("TemperatureSource", TemperatureSourcePackage)
	viper.SetDefault("IpmiTimeout", 10*time.Second)
	viper.SetDefault("DbPath", "/etc/idrac-fan-controller/idrac-fan-controller.db")
	viper.SetDefault("StatusFile", "")
	viper.SetDefault("Statistics.Enabled", false)
	viper.SetDefault("Statistics.Port", 9000)
	viper.SetDefault("Api.Enabled", false)
	viper.SetDefault("Api.Host", "localhost")
	viper.SetDefault("Api.Port", 9001)
}

func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}

func Validate() error {
	return validateConfig(&CurrentConfig)
}
