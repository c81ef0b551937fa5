// Package config loads basictx settings from defaults, an optional YAML file,
// BASICTX_* environment variables and command line flags, in that order.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Preprod defaults. Running with no configuration at all sends exactly this request.
const (
	DefaultAPIURL          = "https://preprod.api.ada-anvil.app/v2/services"
	DefaultAPIKey          = "testnet_EyrkvCWDZqjkfLSe1pxaF0hXxUcByHEhHuXIBjt9"
	DefaultChangeAddress   = "addr_test1qrydyk6uw6cehk5u3zspyz3dhnwzmhfls2fp42vv5dv9g2z3885pg4kpkn30ptezc855lu3w5ey93zcr5lrezjmwkftqg8xvge"
	DefaultReceiverAddress = "addr_test1qr0tkwvlln0v5fljdxceudmlpt5y6szc84vpj4skm836tgn4hsqaesgg97l8ppy5rsn0alj8pth6lqe20fdyydsdgw6sr74cyt"
	DefaultLovelace        = 10_000_000
	DefaultSandboxAddress  = "127.0.0.1:8090"

	envPrefix  = "BASICTX"
	configName = "basictx"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Tx      TxConfig      `mapstructure:"tx"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Key     string        `mapstructure:"key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TxConfig struct {
	ChangeAddress   string `mapstructure:"change_address"`
	ReceiverAddress string `mapstructure:"receiver_address"`
	Lovelace        uint64 `mapstructure:"lovelace"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// HistoryConfig enables the build history store when Path is set
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type SandboxConfig struct {
	Address string `mapstructure:"address"`
}

// New returns a viper instance carrying the defaults and environment binding.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("api.key", DefaultAPIKey)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("tx.change_address", DefaultChangeAddress)
	v.SetDefault("tx.receiver_address", DefaultReceiverAddress)
	v.SetDefault("tx.lovelace", DefaultLovelace)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("history.path", "")
	v.SetDefault("sandbox.address", DefaultSandboxAddress)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and decodes everything into a Config.
// An explicit configFile must exist; otherwise ./basictx.yaml is used if present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", configFile)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.API.Timeout < 0 {
		return nil, errors.Errorf("api.timeout must not be negative, got %s", cfg.API.Timeout)
	}

	return &cfg, nil
}
