package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"pmatch/pkg/errors"
)

const EnvPrefix = "PMATCH_"

type Config struct {
	Listen        string        `koanf:"listen"`
	TCP           string        `koanf:"tcp"`
	Metrics       string        `koanf:"metrics"`
	Cases         string        `koanf:"cases"`
	CasesURL      string        `koanf:"cases_url"`
	FetchInterval time.Duration `koanf:"fetch_interval"`
	Verbose       int           `koanf:"verbose"`
	Extractors    []string      `koanf:"builtin_extractors"`
}

func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"listen":             ":8080",
		"tcp":                ":7070",
		"metrics":            ":9090",
		"cases":              "",
		"cases_url":          "",
		"fetch_interval":     "30s",
		"verbose":            0,
		"builtin_extractors": []string{},
	}
}

// Load layers defaults, the config file, PMATCH_* environment variables and
// the flags the user set, later layers winning. An empty path searches the
// XDG config dirs for pmatch/config.yaml and skips the file layer when none
// exists.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if path == "" {
		path = searchConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
		}
		log.Debug().Str("path", path).Msg("loaded config file")
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	if flags != nil {
		if err := k.Load(confmap.Provider(changedFlags(flags), "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load flags")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.CasesURL != "" && c.FetchInterval <= 0 {
		return errors.Newf(errors.ErrConfigLoad, "fetch_interval must be positive, got %v", c.FetchInterval)
	}
	if c.Listen == "" && c.TCP == "" {
		return errors.New(errors.ErrConfigLoad, "at least one of listen and tcp must be set")
	}
	return nil
}

// changedFlags maps the flags set on the command line to config keys:
// "cases-url" becomes "cases_url".
func changedFlags(flags *pflag.FlagSet) map[string]interface{} {
	out := make(map[string]interface{})
	flags.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			out[key] = sv.GetSlice()
			return
		}
		out[key] = f.Value.String()
	})
	return out
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Parser()
	}
	return yaml.Parser()
}

func searchConfigFile() string {
	for _, name := range []string{"pmatch/config.yaml", "pmatch/config.toml"} {
		if p, err := xdg.SearchConfigFile(name); err == nil {
			return p
		}
	}
	return ""
}

