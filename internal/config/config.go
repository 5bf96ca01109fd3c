// Package config loads gitmorph settings.
//
// Values are resolved in this order, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. a gitmorph.toml, gitmorph.yaml or gitmorph.yml file
//  3. GITMORPH_* environment variables, including those set by a .env file
//     in the working directory
//
// The result is validated before it is returned.
package config

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GITMORPH_"

// FileNames are the config files Load looks for, in order.
var FileNames = []string{"gitmorph.toml", "gitmorph.yaml", "gitmorph.yml"}

// Config holds every setting of the CLI and server.
type Config struct {
	ProjectName   string        `toml:"project_name" yaml:"project_name" validate:"required"`
	Description   string        `toml:"description" yaml:"description"`
	BasePath      string        `toml:"base_path" yaml:"base_path" validate:"omitempty,startswith=/"`
	Host          string        `toml:"host" yaml:"host"`
	Port          int           `toml:"port" yaml:"port" validate:"min=1,max=65535"`
	MaxLogEntries int           `toml:"max_log_entries" yaml:"max_log_entries" validate:"min=1,max=10000"`
	Repo          string        `toml:"repo" yaml:"repo" validate:"required"`
	Policy        string        `toml:"policy" yaml:"policy" validate:"oneof=replace reject queue"`
	Width         float64       `toml:"width" yaml:"width" validate:"gt=0"`
	Height        float64       `toml:"height" yaml:"height" validate:"gt=0"`
	Watch         bool          `toml:"watch" yaml:"watch"`
	Debounce      time.Duration `toml:"debounce" yaml:"debounce" validate:"gte=0"`
	CacheDir      string        `toml:"cache_dir" yaml:"cache_dir"`
	LogLevel      string        `toml:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ProjectName:   "GitViz",
		Description:   "An interactive Git log visualizer and animation tool",
		Host:          "localhost",
		Port:          3000,
		MaxLogEntries: 30,
		Repo:          ".",
		Policy:        "replace",
		Width:         800,
		Height:        600,
		Watch:         true,
		Debounce:      250 * time.Millisecond,
		LogLevel:      "info",
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Options controls where Load looks.
type Options struct {
	// Path is an explicit config file. When empty, Dir is searched for
	// FileNames and a missing file is not an error.
	Path string

	// Dir is searched for config and .env files. Empty means the working
	// directory.
	Dir string

	// LookupEnv reads environment variables. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// SkipDotEnv disables loading Dir/.env.
	SkipDotEnv bool
}

var validate = validator.New()

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	cfg := Default()
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	lookup := opts.LookupEnv
	if !opts.SkipDotEnv {
		envFile := filepath.Join(opts.Dir, ".env")
		if _, err := os.Stat(envFile); err == nil {
			dotenv, err := godotenv.Read(envFile)
			if err != nil {
				return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", envFile)
			}
			// Real environment variables win over .env entries.
			lookup = func(key string) (string, bool) {
				if v, ok := opts.LookupEnv(key); ok {
					return v, true
				}
				v, ok := dotenv[key]
				return v, ok
			}
		}
	}

	path := opts.Path
	if path == "" {
		path = find(opts.Dir)
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	cfg.BasePath = errors.NormalizeBasePath(cfg.BasePath)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	return nil
}

func find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config file %s (want .toml, .yaml or .yml)", path)
	}
	return nil
}

// applyEnv overrides cfg from GITMORPH_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var firstErr error
	parse := func(name string, set func(string) error) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || firstErr != nil {
			return
		}
		if err := set(v); err != nil {
			firstErr = errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s=%q", EnvPrefix, name, v)
		}
	}

	str("PROJECT_NAME", &cfg.ProjectName)
	str("DESCRIPTION", &cfg.Description)
	str("BASE_PATH", &cfg.BasePath)
	str("HOST", &cfg.Host)
	str("REPO", &cfg.Repo)
	str("POLICY", &cfg.Policy)
	str("CACHE_DIR", &cfg.CacheDir)
	str("LOG_LEVEL", &cfg.LogLevel)
	parse("PORT", func(v string) (err error) { cfg.Port, err = strconv.Atoi(v); return })
	parse("MAX_LOG_ENTRIES", func(v string) (err error) { cfg.MaxLogEntries, err = strconv.Atoi(v); return })
	parse("WIDTH", func(v string) (err error) { cfg.Width, err = strconv.ParseFloat(v, 64); return })
	parse("HEIGHT", func(v string) (err error) { cfg.Height, err = strconv.ParseFloat(v, 64); return })
	parse("WATCH", func(v string) (err error) { cfg.Watch, err = strconv.ParseBool(v); return })
	parse("DEBOUNCE", func(v string) (err error) { cfg.Debounce, err = time.ParseDuration(v); return })
	return firstErr
}

// String renders the configuration as TOML.
func (c Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("%+v", c)
	}
	return buf.String()
}
