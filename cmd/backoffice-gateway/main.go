// Package main implements the back-office gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/udhos/backoffice/cache"
	"github.com/udhos/backoffice/config"
	"github.com/udhos/backoffice/gateway"
	"github.com/udhos/backoffice/tokencache"
)

// upstreamTimeout bounds every domain service call.
const upstreamTimeout = 30 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	cfg, err := config.NewHandler().Config()
	if err != nil {
		log.Fatal().Err(err).Msg("loading the configuration failed")
	}
	setLogLevel(cfg.Logging)
	log.Info().Interface("config", cfg).Msg("loaded config")

	store, err := cache.New(cfg.SSO.Cache)
	if err != nil {
		log.Fatal().Err(err).Str("cache", cfg.SSO.Cache).Msg("token cache initialization failed")
	}

	httpClient := &http.Client{Timeout: upstreamTimeout}

	// one token cache shared by every domain service
	tokens, err := tokencache.New(tokencache.Options{
		AuthorityURL:        cfg.SSO.AuthorityURL,
		TokenURL:            cfg.SSO.TokenURL,
		ClientID:            cfg.SSO.ClientID,
		ClientSecret:        string(cfg.SSO.ClientSecret),
		Scope:               cfg.SSO.Scope,
		HTTPClient:          httpClient,
		Store:               store,
		ExchangeTimeout:     cfg.SSO.ExchangeTimeout,
		DisableSingleFlight: cfg.SSO.DisableSingleFlight,
		Debug:               cfg.Logging.Debug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token cache initialization failed")
	}
	log.Info().Str("token_url", tokens.TokenURL()).Msg("sso authority")

	gw, err := gateway.NewGateway(gateway.WithServicesConfig(cfg.Services, tokens))
	if err != nil {
		log.Fatal().Err(err).Msg("gateway initialization failed")
	}

	e := gateway.NewEcho(cfg.Server)
	gw.RegisterHandlers(e)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Msg("starting the server on address " + address)
	go func() {
		err := e.Start(address)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("received signal to shut down the server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("shutting down the server gracefully failed")
	}
}

func setLogLevel(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
