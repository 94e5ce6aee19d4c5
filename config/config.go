package config

import (
	"fmt"
	"io/ioutil"

	"github.com/CodedInternet/godynastat/vehicle"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"
)

const CONFIG_VERSION = 1

// EnvConfig is read from the environment at start up.
type EnvConfig struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	ConfigFile string `env:"CANPROBE_CONFIG" envDefault:"./canprobe.yaml"`
	DBFile     string `env:"CANPROBE_DB" envDefault:"./tmp/capture.db"`
	Listen     string `env:"CANPROBE_LISTEN" envDefault:"127.0.0.1:8080"`
	Simulated  bool   `env:"CANPROBE_SIM" envDefault:"false"`
}

func ParseEnv() (*EnvConfig, error) {
	cfg := new(EnvConfig)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Config is the bus description loaded from yaml.
type Config struct {
	Version  int
	Bus      string
	Firmware string
	Record   bool
	Commands map[string]CommandConfig
}

type CommandConfig struct {
	Enabled      bool
	PeriodMicros uint32 `yaml:"period_us"`
}

// Parse decodes and validates a yaml config, filling in defaults.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal yaml: %w", err)
	}

	if c.Version != CONFIG_VERSION {
		return nil, fmt.Errorf("unable to work with version %d", c.Version)
	}
	if c.Bus == "" {
		c.Bus = "can0"
	}
	if c.Firmware == "" {
		c.Firmware = vehicle.FirmwareConstraint
	}
	for name := range c.Commands {
		if name != "throttle" && name != "steering" {
			return nil, fmt.Errorf("unknown command %q", name)
		}
	}
	return &c, nil
}

func Load(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read yaml file: %w", err)
	}
	return Parse(raw)
}
