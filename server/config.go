// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2017-2023 The Spacemesh developers

package server

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/wildproof/wildproof/logging"
	"github.com/wildproof/wildproof/registry"
)

const (
	defaultLogDirname      = "logs"
	defaultMaxLogFiles     = 3
	defaultMaxLogFileSize  = 10
	defaultRESTPort        = 8080
	defaultShutdownTimeout = 10 * time.Second
)

// Config defines the configuration options for the wildproof daemon.
//
//nolint:lll
type Config struct {
	Genesis         Genesis       `long:"genesis-time"     description:"Genesis timestamp in RFC3339 format, registry time is counted in units since it"`
	TimeUnit        time.Duration `long:"time-unit"        description:"Length of one registry time unit"`
	Dir             string        `long:"dir"              description:"The base directory that contains wildproof's logs, configuration file, etc."`
	ConfigFile      string        `long:"configfile"       description:"Path to configuration file"                                      short:"c"`
	LogDir          string        `long:"logdir"           description:"Directory to log output."`
	DebugLog        bool          `long:"debuglog"         description:"Enable debug logs"`
	JSONLog         bool          `long:"jsonlog"          description:"Whether to log in JSON format"`
	MaxLogFiles     int           `long:"maxlogfiles"      description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize  int           `long:"maxlogfilesize"   description:"Maximum logfile size in MB"`
	RawRESTListener string        `long:"restlisten"       description:"The interface/port/socket to listen for REST connections"         short:"w"`
	MetricsPort     *uint16       `long:"metrics-port"     description:"The port to expose metrics"`
	ShutdownTimeout time.Duration `long:"shutdown-timeout" description:"How long to wait for in-flight requests on shutdown"`

	Balances map[string]uint64 `long:"balance" description:"Initial ledger balance as principal:amount (repeatable). Balances are enforced only when at least one is given"`

	Registry registry.Config `group:"Registry"`
}

type Genesis time.Time

// UnmarshalFlag implements flags.Unmarshaler.
func (g *Genesis) UnmarshalFlag(value string) error {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return err
	}
	*g = Genesis(t)
	return nil
}

func (g Genesis) Time() time.Time {
	return time.Time(g)
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	dir := "./wildproof"
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		dir = filepath.Join(cacheDir, "wildproof")
	}

	return &Config{
		Genesis:         Genesis(time.Now()),
		TimeUnit:        registry.DefaultTimeUnit,
		Dir:             dir,
		LogDir:          filepath.Join(dir, defaultLogDirname),
		MaxLogFiles:     defaultMaxLogFiles,
		MaxLogFileSize:  defaultMaxLogFileSize,
		RawRESTListener: fmt.Sprintf("localhost:%d", defaultRESTPort),
		ShutdownTimeout: defaultShutdownTimeout,
		Registry:        registry.DefaultConfig(),
	}
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	if _, err := flags.Parse(preCfg); err != nil {
		return nil, err
	}
	return preCfg, nil
}

// ReadConfigFile reads config from an ini file.
// It uses the provided `cfg` as a base config and overrides it with the values
// from the config file.
func ReadConfigFile(cfg *Config) (*Config, error) {
	if cfg.ConfigFile == "" {
		return cfg, nil
	}
	logging.FromContext(context.Background()).Sugar().Debugf("reading config from %s", cfg.ConfigFile)
	if err := flags.IniParse(cfg.ConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %v: %w", cfg.ConfigFile, err)
	}

	return cfg, nil
}

// SetupConfig expands paths and initializes filesystem.
func SetupConfig(cfg *Config) (*Config, error) {
	// Relocate the log directory under a non-default base directory
	// unless it was set explicitly.
	defaultCfg := DefaultConfig()
	if cfg.Dir != defaultCfg.Dir && cfg.LogDir == defaultCfg.LogDir {
		cfg.LogDir = filepath.Join(cfg.Dir, defaultLogDirname)
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create %v: %w", cfg.Dir, err)
	}

	cfg.Dir = cleanAndExpandPath(cfg.Dir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	if cfg.TimeUnit <= 0 {
		return nil, fmt.Errorf("time unit must be positive, got %v", cfg.TimeUnit)
	}
	if err := cfg.Registry.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LedgerBalances converts the configured balances to ledger identities.
// It returns nil when no balance was configured.
func (c *Config) LedgerBalances() map[registry.Identity]uint64 {
	if len(c.Balances) == 0 {
		return nil
	}
	balances := make(map[registry.Identity]uint64, len(c.Balances))
	for principal, amount := range c.Balances {
		balances[registry.Identity(principal)] = amount
	}
	return balances
}

// implement zap.ObjectMarshaler interface.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddTime("genesis", c.Genesis.Time())
	enc.AddDuration("time-unit", c.TimeUnit)
	enc.AddString("dir", c.Dir)
	enc.AddString("restlisten", c.RawRESTListener)
	if c.MetricsPort != nil {
		enc.AddUint16("metrics-port", *c.MetricsPort)
	}
	enc.AddInt("balances", len(c.Balances))
	return enc.AddObject("registry", c.Registry)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
