package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config carries everything main needs to wire the services.
// Values come from environment variables prefixed with POS_ (e.g. POS_PORT),
// optionally overridden by a pos.yaml in the working directory.
type Config struct {
	Port string `mapstructure:"port"`

	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`

	QRProviderBaseURL     string `mapstructure:"qr_provider_base_url"`
	QRProviderAccessToken string `mapstructure:"qr_provider_access_token"`
	ModoBaseURL           string `mapstructure:"modo_base_url"`
	MollieAPIKey          string `mapstructure:"mollie_api_key"`
	StripeAPIKey          string `mapstructure:"stripe_api_key"`

	RedisAddr string `mapstructure:"redis_addr"`
}

func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "")
	v.SetDefault("qr_provider_base_url", "")
	v.SetDefault("qr_provider_access_token", "")
	v.SetDefault("modo_base_url", "")
	v.SetDefault("mollie_api_key", "")
	v.SetDefault("stripe_api_key", "")
	v.SetDefault("redis_addr", "")

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pos")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional, env vars suffice
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %s", err)
		}
	}

	cfg := Config{}
	err := v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error unmarshalling config: %s", err)
	}

	return cfg, nil
}

// Apply exports the settings that the infrastructure helpers read straight
// from the environment: store backend selection and hostname guessing.
func (cfg Config) Apply() error {
	err := os.Setenv("PORT", cfg.Port)
	if err != nil {
		return fmt.Errorf("error exporting port: %s", err)
	}

	if cfg.RedisAddr != "" {
		err = os.Setenv("REDIS_ADDR", cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("error exporting redis address: %s", err)
		}
	}

	return nil
}
