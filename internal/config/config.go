package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DefaultSecret signs session cookies when nothing else is configured.
// Release mode refuses to run with it.
const DefaultSecret = "change-me"

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	LogLevel    string        `mapstructure:"log_level"`
	StaticPath  string        `mapstructure:"static_path"`
	UploadDir   string        `mapstructure:"upload_dir"`
	PublicURL   string        `mapstructure:"public_url"`
	MaxUploadMB int64         `mapstructure:"max_upload_mb"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	PongWait    time.Duration `mapstructure:"pong_wait"`
	WriteWait   time.Duration `mapstructure:"write_wait"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	Secret      string        `mapstructure:"secret"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	ChatRate    float64       `mapstructure:"chat_rate"`
	ChatBurst   int           `mapstructure:"chat_burst"`
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "./web")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("public_url", "")
	v.SetDefault("max_upload_mb", 25)
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", DefaultSecret)
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("chat_rate", 5)
	v.SetDefault("chat_burst", 10)
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults.
// ROOMCALL_* environment variables override file values.
func Load() (*Config, error) {
	v := newViper()
	setServerDefaults(v)
	readFile(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Str("uploads", cfg.UploadDir).Msg("config loaded")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.PingPeriod >= c.PongWait {
		errs = append(errs, errors.New("ping_period must be shorter than pong_wait"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.ChatRate <= 0 || c.ChatBurst <= 0 {
		errs = append(errs, errors.New("chat_rate and chat_burst must be positive"))
	}
	if c.Mode == "release" && (c.Secret == "" || c.Secret == DefaultSecret) {
		errs = append(errs, errors.New("secret must be set in release mode"))
	}
	return errors.Join(errs...)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ROOMCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readFile(v *viper.Viper) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
		return
	}
	log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config file")
}
