// SPDX-License-Identifier: Apache-2.0
// Package config layers built-in defaults, an optional TOML file and
// CRAFTLAUNCH_* environment variables into one launcher configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/provide-io/craftlaunch/internal/instance"
	"github.com/provide-io/craftlaunch/pkg/argv"
	"github.com/provide-io/craftlaunch/pkg/logging"
	"github.com/provide-io/craftlaunch/pkg/plan"
	"github.com/provide-io/craftlaunch/pkg/supervisor"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CRAFTLAUNCH"

// EnvConfigPath selects the configuration file.
const EnvConfigPath = "CRAFTLAUNCH_CONFIG"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("❌ invalid configuration")

// Duration is a time.Duration written as "3s" in files and variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// EnvSection adjusts the game's inherited environment.
type EnvSection struct {
	Unset []string          `toml:"unset"`
	Set   map[string]string `toml:"set"`
}

// Config holds all launcher configuration.
type Config struct {
	InstanceRoot string `toml:"instance_root" split_words:"true"`

	LogLevel string `toml:"log_level" split_words:"true"`
	JSONLog  bool   `toml:"log_json" split_words:"true"`
	LogPath  string `toml:"log_path" split_words:"true"`

	Memory          string   `toml:"memory" split_words:"true"`
	JVMArgs         string   `toml:"jvm_args" split_words:"true"`
	DefaultJVMArgs  []string `toml:"default_jvm_args" split_words:"true"`
	LauncherName    string   `toml:"launcher_name" split_words:"true"`
	LauncherVersion string   `toml:"launcher_version" split_words:"true"`
	Width           int      `toml:"width" split_words:"true"`
	Height          int      `toml:"height" split_words:"true"`

	RuntimeRoots []string `toml:"runtime_roots" split_words:"true"`
	JavaPath     string   `toml:"java_path" split_words:"true"`
	AutoAcquire  bool     `toml:"auto_acquire" split_words:"true"`

	FirstGrace       Duration `toml:"first_grace" split_words:"true"`
	SecondGrace      Duration `toml:"second_grace" split_words:"true"`
	NativesRetention Duration `toml:"natives_retention" split_words:"true"`

	Env EnvSection `toml:"env" ignored:"true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InstanceRoot:     instance.DefaultRoot(),
		LogLevel:         logging.DefaultLevel,
		Memory:           plan.DefaultMemory,
		DefaultJVMArgs:   append([]string(nil), plan.DefaultJVMArgs...),
		LauncherName:     "craftlaunch",
		LauncherVersion:  "1.0.0",
		AutoAcquire:      true,
		FirstGrace:       Duration(supervisor.DefaultFirstGrace),
		SecondGrace:      Duration(supervisor.DefaultSecondGrace),
		NativesRetention: Duration(24 * time.Hour),
	}
}

// DefaultPath returns <user config dir>/craftlaunch/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "craftlaunch", "config.toml")
}

// Load builds the configuration. path, or CRAFTLAUNCH_CONFIG when path is
// empty, must exist; the default location is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if path = os.Getenv(EnvConfigPath); path != "" {
			explicit = true
		} else {
			path = DefaultPath()
		}
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				err = nil
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("failed to parse config file %s: %s", path, strict.String())
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

var memoryPattern = regexp.MustCompile(`^[1-9][0-9]*[KkMmGg]?$`)

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.InstanceRoot == "":
		return fmt.Errorf("%w: instance_root is empty", ErrInvalid)
	case c.Memory != "" && !memoryPattern.MatchString(c.Memory):
		return fmt.Errorf("%w: memory %q is not a heap size like 2G or 4096M", ErrInvalid, c.Memory)
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("%w: width and height must not be negative", ErrInvalid)
	case (c.Width == 0) != (c.Height == 0):
		return fmt.Errorf("%w: width and height must be set together", ErrInvalid)
	case c.FirstGrace <= 0 || c.SecondGrace <= 0:
		return fmt.Errorf("%w: grace periods must be positive", ErrInvalid)
	case c.NativesRetention < 0:
		return fmt.Errorf("%w: natives_retention must not be negative", ErrInvalid)
	}
	if _, err := argv.Split(c.JVMArgs); err != nil {
		return fmt.Errorf("%w: jvm_args: %v", ErrInvalid, err)
	}
	return nil
}

// ExtraJVMArgs splits jvm_args the way a shell would.
func (c *Config) ExtraJVMArgs() []string {
	args, _ := argv.Split(c.JVMArgs)
	return args
}

// PlanOptions returns the plan builder options.
func (c *Config) PlanOptions() plan.Options {
	return plan.Options{
		Memory:          c.Memory,
		DefaultJVMArgs:  c.DefaultJVMArgs,
		ExtraJVMArgs:    c.ExtraJVMArgs(),
		LauncherName:    c.LauncherName,
		LauncherVersion: c.LauncherVersion,
		Width:           c.Width,
		Height:          c.Height,
	}
}

// SupervisorEnv returns the child environment adjustments.
func (c *Config) SupervisorEnv() supervisor.EnvConfig {
	return supervisor.EnvConfig{Unset: c.Env.Unset, Set: c.Env.Set}
}
