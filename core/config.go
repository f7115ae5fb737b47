package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultAuthStateTTL      = 10 * time.Minute
	DefaultHistoryMaxResults = 100
	DefaultUpstreamTimeout   = 30 * time.Second
	DefaultSiteAgent         = "EveKit/4.0.0 (https://evekit.orbital.enterprises; deadlybulb@orbital.enterprises; )"
	DefaultAppPath           = "http://localhost/controller"
	DefaultCallbackPath      = "api/ws/v1/cred/esi_callback"
	DefaultReauthFragment    = "account"
)

type AuthStateConfig struct {
	TTL time.Duration `koanf:"ttl" mapstructure:"ttl"`
	// RequireCatalogScopes rejects requested scopes the catalog does not
	// list. Off by default: scopes go to the authorization server as given.
	RequireCatalogScopes bool `koanf:"require_catalog_scopes" mapstructure:"require_catalog_scopes"`
}

type HistoryConfig struct {
	DefaultMaxResults int `koanf:"default_max_results" mapstructure:"default_max_results"`
	MaxResultsCeiling int `koanf:"max_results_ceiling" mapstructure:"max_results_ceiling"`
}

type UpstreamConfig struct {
	Timeout        time.Duration `koanf:"timeout" mapstructure:"timeout"`
	SiteAgent      string        `koanf:"site_agent" mapstructure:"site_agent"`
	AppPath        string        `koanf:"app_path" mapstructure:"app_path"`
	CallbackPath   string        `koanf:"callback_path" mapstructure:"callback_path"`
	ReauthFragment string        `koanf:"reauth_fragment" mapstructure:"reauth_fragment"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	AuthState   AuthStateConfig `koanf:"auth_state" mapstructure:"auth_state"`
	History     HistoryConfig   `koanf:"history" mapstructure:"history"`
	Upstream    UpstreamConfig  `koanf:"upstream" mapstructure:"upstream"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "accountsync",
		AuthState: AuthStateConfig{
			TTL: DefaultAuthStateTTL,
		},
		History: HistoryConfig{
			DefaultMaxResults: DefaultHistoryMaxResults,
			MaxResultsCeiling: DefaultHistoryMaxResults,
		},
		Upstream: UpstreamConfig{
			Timeout:        DefaultUpstreamTimeout,
			SiteAgent:      DefaultSiteAgent,
			AppPath:        DefaultAppPath,
			CallbackPath:   DefaultCallbackPath,
			ReauthFragment: DefaultReauthFragment,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.History.MaxResultsCeiling <= 0 {
		return fmt.Errorf("core: history.max_results_ceiling must be positive")
	}
	if c.History.DefaultMaxResults <= 0 {
		return fmt.Errorf("core: history.default_max_results must be positive")
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("core: upstream.timeout must not be negative")
	}
	if strings.TrimSpace(c.Upstream.AppPath) == "" {
		return fmt.Errorf("core: upstream.app_path is required")
	}
	return nil
}

// CallbackURL is where the authorization server sends the user back.
func (c UpstreamConfig) CallbackURL() string {
	return strings.TrimRight(c.AppPath, "/") + "/" + strings.TrimLeft(c.CallbackPath, "/")
}

// CompletionURL is where the user lands after a successful exchange.
func (c UpstreamConfig) CompletionURL() string {
	base := strings.TrimRight(c.AppPath, "/") + "/"
	if fragment := strings.TrimSpace(c.ReauthFragment); fragment != "" {
		return base + "#" + fragment
	}
	return base
}
