package config

import (
	"fmt"
	"time"
)

// ClientConfig drives the headless room client.
type ClientConfig struct {
	ServerURL   string        `mapstructure:"server_url"`
	LogLevel    string        `mapstructure:"log_level"`
	ICEServers  []string      `mapstructure:"ice_servers"`
	RingTimeout time.Duration `mapstructure:"ring_timeout"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

func setClientDefaults(v interface{ SetDefault(string, any) }) {
	v.SetDefault("server_url", "ws://localhost:8080/api/ws/signal")
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("ring_timeout", "30s")
	v.SetDefault("dial_timeout", "10s")
}

func LoadClient() (*ClientConfig, error) {
	v := newViper()
	setClientDefaults(v)
	readFile(v)

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cfg.RingTimeout <= 0 {
		return nil, fmt.Errorf("ring_timeout must be positive, got %s", cfg.RingTimeout)
	}
	return &cfg, nil
}
