// Package config loads the gateway configuration.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the whole gateway configuration.
type Config struct {
	Server   ServerConfig
	SSO      SSOConfig
	Services ServicesConfig
	Logging  LoggingConfig
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host            string
	Port            int
	RateLimits      RateLimits
	AllowOrigin     []string
	ShutdownTimeout time.Duration
}

// RateLimits configures the token bucket applied to every request.
type RateLimits struct {
	Enabled bool
	Rate    float64
	Burst   int
}

// SSOConfig holds the client-credentials settings for the SSO authority.
type SSOConfig struct {
	AuthorityURL        string
	TokenURL            string
	ClientID            string
	ClientSecret        RedactedString
	Scope               string
	Cache               string
	ExchangeTimeout     time.Duration
	DisableSingleFlight bool
}

// ServiceConfig locates one domain service.
type ServiceConfig struct {
	BaseURL string
}

// ServicesConfig holds one entry per domain service. An empty BaseURL
// disables the endpoints backed by that service.
type ServicesConfig struct {
	Profile     ServiceConfig
	Payment     ServiceConfig
	Transaction ServiceConfig
	Account     ServiceConfig
}

// LoggingConfig sets the zerolog level.
type LoggingConfig struct {
	Level string
	Debug bool
}

// Validate checks that the authority and client are defined.
func (c SSOConfig) Validate() error {
	if c.AuthorityURL == "" && c.TokenURL == "" {
		return errors.New("sso: either authorityURL or tokenURL is required")
	}
	if c.ClientID == "" {
		return errors.New("sso: clientID is required")
	}
	if c.ExchangeTimeout < 0 {
		return fmt.Errorf("sso: negative exchangeTimeout: %v", c.ExchangeTimeout)
	}
	return nil
}

// Validate requires at least one configured service.
func (c ServicesConfig) Validate() error {
	if c.Profile.BaseURL == "" && c.Payment.BaseURL == "" &&
		c.Transaction.BaseURL == "" && c.Account.BaseURL == "" {
		return errors.New("services: at least one service baseURL is required")
	}
	return nil
}

// Validate checks the port and the rate limits.
func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server: invalid port: %d", c.Port)
	}
	if c.RateLimits.Enabled && (c.RateLimits.Rate <= 0 || c.RateLimits.Burst <= 0) {
		return errors.New("server: rate limits require positive rate and burst")
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.SSO.Validate(); err != nil {
		return err
	}
	return c.Services.Validate()
}
