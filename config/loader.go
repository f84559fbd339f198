package config

import (
	"errors"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BACKOFFICE_SSO_CLIENTSECRET.
const EnvPrefix = "backoffice"

var defaults = map[string]any{
	"server.host":                  "",
	"server.port":                  8080,
	"server.ratelimits.enabled":    false,
	"server.ratelimits.rate":       0,
	"server.ratelimits.burst":      0,
	"server.alloworigin":           []string{},
	"server.shutdowntimeout":       "10s",
	"sso.authorityurl":             "",
	"sso.tokenurl":                 "",
	"sso.clientid":                 "",
	"sso.clientsecret":             "",
	"sso.scope":                    "",
	"sso.cache":                    "",
	"sso.exchangetimeout":          "10s",
	"sso.disablesingleflight":      false,
	"services.profile.baseurl":     "",
	"services.payment.baseurl":     "",
	"services.transaction.baseurl": "",
	"services.account.baseurl":     "",
	"logging.level":                "info",
	"logging.debug":                false,
}

// Handler reads config.yaml from the first search path holding one and lets
// environment variables override any key.
type Handler struct {
	v *viper.Viper
}

// NewHandler creates a handler searching CONFIG_LOCATION, /etc/backoffice
// and the working directory, in that order.
func NewHandler() *Handler {
	paths := []string{}
	if p := os.Getenv("CONFIG_LOCATION"); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, "/etc/backoffice", ".")
	return NewHandlerWithPaths(paths...)
}

// NewHandlerWithPaths creates a handler searching only paths.
func NewHandlerWithPaths(paths ...string) *Handler {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Handler{v: v}
}

// Config reads, decodes and validates the configuration.
// A missing config file is not an error: defaults and environment apply.
func (h *Handler) Config() (Config, error) {
	err := h.v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
		log.Info().Msg("could not find any config file - only defaults and environment variables will be used")
	} else {
		log.Info().Str("path", h.v.ConfigFileUsed()).Msg("loaded config file")
	}

	var output Config
	err = h.v.Unmarshal(
		&output,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		),
	)
	if err != nil {
		return Config{}, err
	}
	if err := output.Validate(); err != nil {
		return Config{}, err
	}
	return output, nil
}
