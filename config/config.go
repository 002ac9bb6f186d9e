package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/vultisig/feedback-client/common"
)

type Config struct {
	Locale string `mapstructure:"locale" json:"locale,omitempty" validate:"required"`

	Api struct {
		BaseURL string        `mapstructure:"base_url" json:"base_url,omitempty" validate:"required,url"`
		Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty" validate:"gt=0"`
	} `mapstructure:"api" json:"api"`

	Form struct {
		ResetDelay      time.Duration `mapstructure:"reset_delay" json:"reset_delay,omitempty" validate:"gt=0"`
		MaxReviewLength int           `mapstructure:"max_review_length" json:"max_review_length,omitempty" validate:"min=1,max=5000"`
	} `mapstructure:"form" json:"form"`

	Dashboard struct {
		PageLimit    int           `mapstructure:"page_limit" json:"page_limit,omitempty" validate:"min=1,max=100"`
		PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval,omitempty" validate:"gte=1s"`
	} `mapstructure:"dashboard" json:"dashboard"`

	Log struct {
		Level  string `mapstructure:"level" json:"level,omitempty"`
		Format string `mapstructure:"format" json:"format,omitempty" validate:"oneof=text json"`
	} `mapstructure:"log" json:"log"`

	Datadog struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port string `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"datadog" json:"datadog"`

	Sentry struct {
		DSN         string `mapstructure:"dsn" json:"dsn,omitempty"`
		Environment string `mapstructure:"environment" json:"environment,omitempty"`
	} `mapstructure:"sentry" json:"sentry"`
}

func GetConfigure() (*Config, error) {
	configName := os.Getenv("FEEDBACK_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}

	return ReadConfig(configName)
}

func ReadConfig(configName string) (*Config, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(".")
	v.SetEnvPrefix("FEEDBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindEnv("api.base_url", "FEEDBACK_API_BASE_URL", "API_URL"); err != nil {
		return nil, fmt.Errorf("fail to bind api.base_url env, %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fail to reading config file, %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("locale", "en")
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("form.reset_delay", 5*time.Second)
	v.SetDefault("form.max_review_length", 5000)
	v.SetDefault("dashboard.page_limit", 100)
	v.SetDefault("dashboard.poll_interval", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("datadog.host", "")
	v.SetDefault("datadog.port", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	cfg.Api.BaseURL = strings.TrimRight(cfg.Api.BaseURL, "/")

	if err := common.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) DatadogAddr() string {
	if c.Datadog.Host == "" || c.Datadog.Port == "" {
		return ""
	}
	return c.Datadog.Host + ":" + c.Datadog.Port
}
