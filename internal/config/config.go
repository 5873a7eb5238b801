package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/push"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LEDGER_SERVER_URL.
const EnvPrefix = "LEDGER"

// Configuration keys.
const (
	KeyServerURL         = "server.url"
	KeyPushURL           = "server.push_url"
	KeyTimeout           = "server.timeout"
	KeyPageSize          = "pagination.page_size"
	KeyRetryMaxAttempts  = "retry.max_attempts"
	KeyRetryInitialDelay = "retry.initial_delay"
	KeyRetryMaxDelay     = "retry.max_delay"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
)

// Client is the validated configuration of the ledger client.
type Client struct {
	ServerURL string
	PushURL   string
	LogLevel  string
	LogFormat string
	Retry     service.RetryOptions
	Timeout   time.Duration
	PageSize  int
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerURL, "http://localhost:3000")
	v.SetDefault(KeyPushURL, "")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyPageSize, 20)
	v.SetDefault(KeyRetryMaxAttempts, common.DefaultRetryOptions.MaxAttempts)
	v.SetDefault(KeyRetryInitialDelay, common.DefaultRetryOptions.InitialDelay)
	v.SetDefault(KeyRetryMaxDelay, common.DefaultRetryOptions.MaxDelay)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// BindEnv makes LEDGER_* environment variables override v. Dots in keys
// become underscores: server.url is read from LEDGER_SERVER_URL.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv reads KEY=value pairs from the given files into the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ReadFile reads cfgFile into v, or searches the standard locations when it
// is empty. A missing config file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		v.AddConfigPath(ExpandPath("~/.config/ledger"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load builds a validated Client configuration from v.
func Load(v *viper.Viper) (Client, error) {
	cfg := Client{
		ServerURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyServerURL)), "/"),
		PushURL:   strings.TrimSpace(v.GetString(KeyPushURL)),
		Timeout:   v.GetDuration(KeyTimeout),
		PageSize:  v.GetInt(KeyPageSize),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		Retry: service.RetryOptions{
			MaxAttempts:  v.GetInt(KeyRetryMaxAttempts),
			InitialDelay: v.GetDuration(KeyRetryInitialDelay),
			MaxDelay:     v.GetDuration(KeyRetryMaxDelay),
			Multiplier:   common.DefaultRetryOptions.Multiplier,
		},
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Client{}, fmt.Errorf("%w: %s must be an http(s) URL, got %q", common.ErrInvalidConfig, KeyServerURL, cfg.ServerURL)
	}

	if cfg.PushURL == "" {
		if cfg.PushURL, err = push.DeriveURL(cfg.ServerURL); err != nil {
			return Client{}, err
		}
	} else if u, err := url.Parse(cfg.PushURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return Client{}, fmt.Errorf("%w: %s must be a ws(s) URL, got %q", common.ErrInvalidConfig, KeyPushURL, cfg.PushURL)
	}

	if cfg.PageSize <= 0 {
		return Client{}, fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyPageSize, cfg.PageSize)
	}
	if cfg.Timeout <= 0 {
		return Client{}, fmt.Errorf("%w: %s must be positive, got %s", common.ErrInvalidConfig, KeyTimeout, cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts <= 0 {
		return Client{}, fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyRetryMaxAttempts, cfg.Retry.MaxAttempts)
	}
	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return Client{}, err
	}

	return cfg, nil
}
