package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BB"

// Configuration holds the settings shared by the command line tools.
type Configuration struct {
	Agent    Agent   `mapstructure:"agent"`
	Auction  Auction `mapstructure:"auction"`
	History  string  `mapstructure:"history"`
	Bids     string  `mapstructure:"bids"`
	Round    int     `mapstructure:"round"`
	Format   string  `mapstructure:"format"`
	LogLevel string  `mapstructure:"log_level"`
}

// Agent identifies the bidder and its private valuation.
type Agent struct {
	ID     string  `mapstructure:"id"`
	Value  float64 `mapstructure:"value"`
	Budget float64 `mapstructure:"budget"`
}

// Auction holds the mechanism parameters.
type Auction struct {
	Reserve float64 `mapstructure:"reserve"`
	Slots   int     `mapstructure:"slots"`

	// ReserveSet is true when the reserve came from a flag, the environment or the config file
	ReserveSet bool `mapstructure:"-"`

	// AdjustmentFactors scale bids per bidder before ranking
	AdjustmentFactors map[string]float64 `mapstructure:"adjustment_factors"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"agent-id":  "agent.id",
	"value":     "agent.value",
	"budget":    "agent.budget",
	"reserve":   "auction.reserve",
	"slots":     "auction.slots",
	"history":   "history",
	"bids":      "bids",
	"round":     "round",
	"format":    "format",
	"log-level": "log_level",
}

// SetupViper registers defaults and environment bindings, then reads configFile when given.
// Environment variables use the BB_ prefix with "." replaced by "_", e.g. BB_AGENT_VALUE.
func SetupViper(v *viper.Viper, configFile string) error {
	v.SetDefault("agent.budget", 0.0)
	v.SetDefault("auction.reserve", 0.0)
	v.SetDefault("auction.slots", 3)
	v.SetDefault("history", "history.json")
	v.SetDefault("bids", "")
	v.SetDefault("round", -1)
	v.SetDefault("format", "text")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{"agent.id", "agent.value"} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}
	return nil
}

// BindFlags binds every known flag defined in fs so that flags set on the command line
// take precedence over the environment and the config file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// New uses viper to build the configuration.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return &c, nil
}

// Load parses the already-defined flag set against args and resolves the configuration from
// defaults, the --config file, the environment and the flags, in increasing precedence.
func Load(fs *pflag.FlagSet, args []string) (*Configuration, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	configFile := ""
	if flag := fs.Lookup("config"); flag != nil {
		configFile = flag.Value.String()
	}

	v := viper.New()
	if err := SetupViper(v, configFile); err != nil {
		return nil, err
	}
	if err := BindFlags(v, fs); err != nil {
		return nil, err
	}

	c, err := New(v)
	if err != nil {
		return nil, err
	}
	c.Auction.ReserveSet = isExplicit(v, fs, "reserve", "auction.reserve")
	return c, nil
}

// isExplicit reports whether key was given on the command line, in the environment or in the
// config file rather than coming from a default.
func isExplicit(v *viper.Viper, fs *pflag.FlagSet, flagName, key string) bool {
	if fs.Changed(flagName) || v.InConfig(key) {
		return true
	}
	env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	_, ok := os.LookupEnv(env)
	return ok
}

// ValidateBidder checks the settings needed to compute a bid.
func (c *Configuration) ValidateBidder() error {
	var errs []error
	if c.Agent.ID == "" {
		errs = append(errs, errors.New("agent id is required"))
	}
	if c.Agent.Value < 0 {
		errs = append(errs, fmt.Errorf("agent value must be non-negative, got %.4f", c.Agent.Value))
	}
	errs = append(errs, c.validateCommon()...)
	return errors.Join(errs...)
}

// ValidateRecorder checks the settings needed to record a round.
func (c *Configuration) ValidateRecorder() error {
	var errs []error
	if c.Auction.Slots < 0 {
		errs = append(errs, fmt.Errorf("slot count must be non-negative, got %d", c.Auction.Slots))
	}
	for bidder, factor := range c.Auction.AdjustmentFactors {
		if factor <= 0 {
			errs = append(errs, fmt.Errorf("adjustment factor for %s must be positive, got %.4f", bidder, factor))
		}
	}
	errs = append(errs, c.validateCommon()...)
	return errors.Join(errs...)
}

func (c *Configuration) validateCommon() []error {
	var errs []error
	if c.Auction.Reserve < 0 {
		errs = append(errs, fmt.Errorf("reserve must be non-negative, got %.4f", c.Auction.Reserve))
	}
	if c.History == "" {
		errs = append(errs, errors.New("history path is required"))
	}
	if c.Format != "text" && c.Format != "json" {
		errs = append(errs, fmt.Errorf("format must be text or json, got %q", c.Format))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// NewLogger builds the stderr logger for the configured level.
func (c *Configuration) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	if c.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l, nil
}
