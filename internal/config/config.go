// Package config loads run settings from an optional fxprep.yaml file,
// FXPREP_ environment variables and command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/fxprep/internal/normalize"
	"github.com/lehigh-university-libraries/fxprep/internal/optimizer"
	"github.com/lehigh-university-libraries/fxprep/internal/scraper"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings file name (without extension) and environment prefix.
const (
	FileName  = "fxprep"
	EnvPrefix = "FXPREP"
)

// Setting keys.
const (
	KeyProvider         = "provider"
	KeyModel            = "model"
	KeyTemperature      = "temperature"
	KeyCatalog          = "catalog"
	KeyTitlePolicy      = "title_policy"
	KeyScrapeMode       = "scrape_mode"
	KeyScrapeTimeout    = "scrape_timeout"
	KeyUserAgent        = "user_agent"
	KeyConcurrency      = "concurrency"
	KeyTemplateDefaults = "template_defaults"
)

type Settings struct {
	Provider         string            `mapstructure:"provider"`
	Model            string            `mapstructure:"model"`
	Temperature      float64           `mapstructure:"temperature"`
	Catalog          string            `mapstructure:"catalog"`
	TitlePolicy      string            `mapstructure:"title_policy"`
	ScrapeMode       string            `mapstructure:"scrape_mode"`
	ScrapeTimeout    time.Duration     `mapstructure:"scrape_timeout"`
	UserAgent        string            `mapstructure:"user_agent"`
	Concurrency      int               `mapstructure:"concurrency"`
	TemplateDefaults map[string]string `mapstructure:"template_defaults"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyTemperature, optimizer.DefaultTemperature)
	v.SetDefault(KeyTitlePolicy, string(normalize.TitleTruncate))
	v.SetDefault(KeyScrapeMode, string(scraper.ModeHTTP))
	v.SetDefault(KeyScrapeTimeout, scraper.DefaultTimeout)
	v.SetDefault(KeyUserAgent, scraper.DefaultUserAgent)
	v.SetDefault(KeyConcurrency, 1)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows.
	for _, key := range []string{KeyProvider, KeyModel, KeyCatalog} {
		_ = v.BindEnv(key)
	}
	return v
}

// BindFlags binds settings keys to the named flags that exist in flags.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads path, or fxprep.yaml from the working directory or
// $HOME/.config/fxprep when path is empty. A missing default file is not an
// error.
func Load(v *viper.Viper, path string) (Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	return s, nil
}

// Used reports the settings file viper read, or "".
func Used(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
