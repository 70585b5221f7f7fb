package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// DefaultConfigSearchPaths are checked in order; the first existing file
	// wins.
	DefaultConfigSearchPaths = []string{
		filepath.Join(os.Getenv("HOME"), ".polyglot.toml"),
		filepath.Join(os.Getenv("HOME"), ".config", "polyglot.toml"),
	}

	// DefaultEnvFile is loaded into the process environment when present.
	// Variables already set are not overridden.
	DefaultEnvFile = ".env"
)

const (
	EnvDriver    = "POLYGLOT_DRIVER"
	EnvDB        = "POLYGLOT_DB"
	EnvNamespace = "POLYGLOT_NAMESPACE"
	EnvCutoff    = "POLYGLOT_CUTOFF"
)

// Config is the TOML configuration struct.  When a ~/.polyglot.toml or
// ~/.config/polyglot.toml file exists, the values contained therein will
// override the compiled-in defaults and the environment.  Command-line flags
// override everything.
type Config struct {
	File string `toml:"-"`

	Driver    string
	DB        string
	Namespace string
	Cutoff    float64
	Algorithm string
	Roster    string
	Endpoint  string
	Quiet     bool
	Verbose   bool
}

func NewConfig() *Config {
	return &Config{}
}

// Do applies the environment and then the first configuration file found.
func (cfg *Config) Do() error {
	if err := cfg.applyEnv(); err != nil {
		return err
	}

	file, err := findConfigFile()
	if err != nil {
		return errors.Wrap(err, "locating polyglot TOML configuration")
	}
	if len(file) == 0 {
		// No configuration file found.
		return nil
	}

	if _, err := toml.DecodeFile(file, cfg); err != nil {
		return errors.Wrapf(err, "parsing polyglot TOML configuration file %q", file)
	}
	cfg.File = file
	log.WithField("file", file).Debug("Applying configuration file")
	cfg.Apply()
	return nil
}

func (cfg *Config) applyEnv() error {
	if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return errors.Wrapf(err, "loading %v", DefaultEnvFile)
		}
	}

	env := &Config{
		Driver:    os.Getenv(EnvDriver),
		DB:        os.Getenv(EnvDB),
		Namespace: os.Getenv(EnvNamespace),
	}
	if v := os.Getenv(EnvCutoff); len(v) > 0 {
		cutoff, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %v", EnvCutoff)
		}
		env.Cutoff = cutoff
	}
	env.Apply()
	return nil
}

func (cfg *Config) Apply() {
	if len(cfg.Driver) > 0 {
		DBDriver = cfg.Driver
	}
	if len(cfg.DB) > 0 {
		DBFile = cfg.DB
	}
	if len(cfg.Namespace) > 0 {
		Namespace = cfg.Namespace
	}
	if cfg.Cutoff > 0 {
		Cutoff = cfg.Cutoff
	}
	if len(cfg.Algorithm) > 0 {
		Algorithm = cfg.Algorithm
	}
	if len(cfg.Roster) > 0 {
		RosterFile = cfg.Roster
	}
	if len(cfg.Endpoint) > 0 {
		Endpoint = cfg.Endpoint
	}
	if cfg.Quiet {
		Quiet = true
	}
	if cfg.Verbose {
		Verbose = true
	}
}

// findConfigFile searches DefaultConfigSearchPaths in order.
//
// If no config file is found, ("", nil) is returned.
func findConfigFile() (string, error) {
	for _, path := range DefaultConfigSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return "", err
		}
	}
	return "", nil
}
