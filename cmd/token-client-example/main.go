// Package main implements the tool.
//
// token-client-example obtains a bearer token from the SSO authority and
// calls a domain service URL with it, to check credentials and caching.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/udhos/backoffice/cache"
	"github.com/udhos/backoffice/tokencache"
)

type application struct {
	authorityURL        string
	tokenURL            string
	clientID            string
	clientSecret        string
	scope               string
	targetURL           string
	targetMethod        string
	targetBody          string
	count               int
	interval            time.Duration
	cache               string
	disableSingleflight bool
	concurrent          bool
	tokenOnly           bool
	debug               bool
}

func main() {

	app := application{}

	flag.StringVar(&app.authorityURL, "authorityURL", "http://localhost:8080", "SSO authority base URL, token endpoint is <authorityURL>/connect/token")
	flag.StringVar(&app.tokenURL, "tokenURL", "", "explicit token URL, overrides authorityURL")
	flag.StringVar(&app.clientID, "clientID", "admin", "client ID")
	flag.StringVar(&app.clientSecret, "clientSecret", "admin", "client secret")
	flag.StringVar(&app.scope, "scope", "", "space-delimited list of scopes")
	flag.StringVar(&app.targetURL, "targetURL", "https://httpbin.org/get", "target URL")
	flag.StringVar(&app.targetMethod, "targetMethod", "GET", "target method")
	flag.StringVar(&app.targetBody, "targetBody", "", "target body")
	flag.IntVar(&app.count, "count", 2, "how many requests to send")
	flag.DurationVar(&app.interval, "interval", 2*time.Second, "interval between sends")
	flag.StringVar(&app.cache, "cache", "", "empty means default memory cache\n'file:<path>' means filecache (example: file:/tmp/cache)\n'error' means errorcache\nredis format: 'redis:<host>:<port>:<password>:<key>' (example: redis:localhost:6379::backoffice)")
	flag.BoolVar(&app.disableSingleflight, "disableSingleflight", false, "disable singleflight")
	flag.BoolVar(&app.concurrent, "concurrent", false, "concurrent requests")
	flag.BoolVar(&app.tokenOnly, "tokenOnly", false, "only fetch the token, do not call targetURL")
	flag.BoolVar(&app.debug, "debug", false, "enable debug logging")

	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if app.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, errCache := cache.New(app.cache)
	if errCache != nil {
		log.Fatal().Msgf("cache error: %s: %v", app.cache, errCache)
	}

	options := tokencache.Options{
		AuthorityURL:        app.authorityURL,
		TokenURL:            app.tokenURL,
		ClientID:            app.clientID,
		ClientSecret:        app.clientSecret,
		Scope:               app.scope,
		HTTPClient:          http.DefaultClient,
		Store:               store,
		DisableSingleFlight: app.disableSingleflight,
		Debug:               app.debug,
	}

	client, errNew := tokencache.New(options)
	if errNew != nil {
		log.Fatal().Msgf("token cache: %v", errNew)
	}

	if app.tokenOnly {
		tk, errToken := client.GetToken(context.Background())
		if errToken != nil {
			log.Fatal().Msgf("token: %v", errToken)
		}
		fmt.Println(tk)
		return
	}

	if app.concurrent {
		//
		// concurrent requests
		//
		var wg sync.WaitGroup
		for i := 1; i <= app.count; i++ {
			j := i
			wg.Add(1)
			go func() {
				send(&app, client, j)
				wg.Done()
			}()
		}
		wg.Wait()
		return
	}

	//
	// non-concurrent requests
	//
	for i := 1; i <= app.count; i++ {
		send(&app, client, i)
	}
}

func send(app *application, client *tokencache.TokenCache, i int) {
	label := fmt.Sprintf("request %d/%d", i, app.count)

	req, errReq := http.NewRequestWithContext(context.TODO(), app.targetMethod, app.targetURL, bytes.NewBufferString(app.targetBody))
	if errReq != nil {
		log.Fatal().Msgf("%s: request: %v", label, errReq)
	}

	resp, errDo := client.Do(req)
	if errDo != nil {
		log.Fatal().Msgf("%s: do: %v", label, errDo)
	}
	defer resp.Body.Close()

	log.Info().Msgf("%s: status: %d", label, resp.StatusCode)

	body, errBody := io.ReadAll(resp.Body)
	if errBody != nil {
		log.Fatal().Msgf("%s: body: %v", label, errBody)
	}

	log.Info().Msgf("%s: body:", label)
	fmt.Println(string(body))

	if i < app.count && app.interval != 0 {
		log.Info().Msgf("%s: sleeping for interval=%v", label, app.interval)
		time.Sleep(app.interval)
	}
}
