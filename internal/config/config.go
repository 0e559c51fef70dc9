// Package config loads resgen settings using Viper.
//
// Precedence, highest first: command-line flags, RESGEN_* environment
// variables, the settings file, built-in defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/fingerprint"
	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/remote"
	"github.com/felixgeelhaar/resgen/internal/resources"
	"github.com/felixgeelhaar/resgen/internal/ux"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RESGEN"

// FileName is the settings file name searched without an explicit path.
const FileName = "resgen"

// Config holds the resgen settings.
type Config struct {
	API       APIConfig       `mapstructure:"api" json:"api" yaml:"api"`
	Transform TransformConfig `mapstructure:"transform" json:"transform" yaml:"transform"`
	Cache     CacheConfig     `mapstructure:"cache" json:"cache" yaml:"cache"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
	Resources ResourcesConfig `mapstructure:"resources" json:"resources" yaml:"resources"`
	Project   ProjectConfig   `mapstructure:"project" json:"project" yaml:"project"`

	// File is the settings file that was read, if any.
	File string `mapstructure:"-" json:"-" yaml:"-"`
}

// APIConfig configures the image service client.
type APIConfig struct {
	URL     string        `mapstructure:"url" json:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	Retries int           `mapstructure:"retries" json:"retries" yaml:"retries"`
}

// TransformConfig configures the transform stage.
type TransformConfig struct {
	Concurrency int `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency"`
}

// CacheConfig configures the fingerprint cache.
type CacheConfig struct {
	Dir string `mapstructure:"dir" json:"dir" yaml:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// ResourcesConfig locates source artwork and outputs.
type ResourcesConfig struct {
	Dir string `mapstructure:"dir" json:"dir" yaml:"dir"`
}

// ProjectConfig locates the project.
type ProjectConfig struct {
	Dir string `mapstructure:"dir" json:"dir" yaml:"dir"`
}

// flagKeys maps settings keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"api.url":               "api",
	"api.timeout":           "timeout",
	"transform.concurrency": "concurrency",
	"cache.dir":             "cache-dir",
	"log.level":             "log-level",
	"log.format":            "log-format",
	"resources.dir":         "resources-dir",
	"project.dir":           "project",
}

// Load reads settings. An empty configPath searches the project directory
// and ~/.resgen for resgen.yaml; a missing file is not an error. Flags in
// flags that the user set override every other source. Unless --project
// was given, the project directory is the nearest ancestor holding
// config.xml.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrap(errors.ErrCodeSettingsInvalid, "failed to bind flag "+name, err)
				}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	discover := flags == nil || !flags.Changed("project")
	projectDir := v.GetString("project.dir")
	if discover {
		dir, err := ux.DiscoverProjectDir(projectDir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSettingsInvalid, "failed to resolve project directory", err)
		}
		projectDir = dir
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, errors.NewFileNotFoundError(configPath)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(projectDir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".resgen"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is OK, we'll use defaults
		if _, notFound := err.(viper.ConfigFileNotFoundError); configPath != "" || !notFound {
			return nil, errors.Wrap(errors.ErrCodeSettingsInvalid, "failed to read settings file", err).
				WithSuggestion("Check the YAML syntax of the settings file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSettingsInvalid, "failed to decode settings", err)
	}
	cfg.File = v.ConfigFileUsed()
	if discover {
		// The settings file may move project.dir.
		dir, err := ux.DiscoverProjectDir(cfg.Project.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSettingsInvalid, "failed to resolve project directory", err)
		}
		cfg.Project.Dir = dir
	}

	if strings.HasPrefix(cfg.Cache.Dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(home, cfg.Cache.Dir[1:])
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", remote.DefaultBaseURL)
	v.SetDefault("api.timeout", 2*time.Minute)
	v.SetDefault("api.retries", 2)
	v.SetDefault("transform.concurrency", resources.DefaultConcurrency)
	v.SetDefault("cache.dir", fingerprint.DefaultDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("resources.dir", resources.DefaultResourcesDir)
	v.SetDefault("project.dir", ".")
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeSettingsInvalid, fmt.Sprintf(format, args...))
	}

	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("api.url must be an http(s) URL, got %q", c.API.URL)
	}
	if c.API.Timeout < 0 {
		return invalid("api.timeout must not be negative")
	}
	if c.API.Retries < 0 {
		return invalid("api.retries must not be negative")
	}
	if c.Transform.Concurrency < 1 {
		return invalid("transform.concurrency must be at least 1, got %d", c.Transform.Concurrency)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Resources.Dir == "" {
		return invalid("resources.dir must not be empty")
	}
	return nil
}

// LoggerConfig returns the logger configuration for these settings.
func (c *Config) LoggerConfig() log.Config {
	level := log.ParseLevel(c.Log.Level)
	cfg := log.DefaultConfig()
	if level == log.LevelDebug {
		cfg = log.DevelopmentConfig()
	}
	cfg.Level = level
	cfg.Format = log.ParseFormat(strings.ToLower(c.Log.Format))
	return cfg
}

// ClientConfig returns the image service client configuration.
func (c *Config) ClientConfig(logger *log.Logger) remote.Config {
	return remote.Config{
		BaseURL: c.API.URL,
		Timeout: c.API.Timeout,
		Retries: c.API.Retries,
		Logger:  logger,
	}
}
