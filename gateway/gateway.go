// Package gateway exposes the back-office domain data to the UI.
//
// Every route fetches from a domain service through the shared SSO token
// cache and answers with a filtered, paginated page of records.
package gateway

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/udhos/backoffice/config"
	"github.com/udhos/backoffice/upstream"
)

// Gateway serves the back-office API on top of the domain service clients.
type Gateway struct {
	profile     *upstream.Client
	payment     *upstream.Client
	transaction *upstream.Client
	account     *upstream.Client
}

// GatewayOption configures a Gateway built by NewGateway.
type GatewayOption func(*Gateway) error

// WithProfileService backs the customer routes with c.
func WithProfileService(c *upstream.Client) GatewayOption {
	return func(g *Gateway) error {
		g.profile = c
		return nil
	}
}

// WithPaymentService backs the payment routes with c.
func WithPaymentService(c *upstream.Client) GatewayOption {
	return func(g *Gateway) error {
		g.payment = c
		return nil
	}
}

// WithTransactionService backs the transaction routes with c.
func WithTransactionService(c *upstream.Client) GatewayOption {
	return func(g *Gateway) error {
		g.transaction = c
		return nil
	}
}

// WithAccountService backs the account routes with c.
func WithAccountService(c *upstream.Client) GatewayOption {
	return func(g *Gateway) error {
		g.account = c
		return nil
	}
}

// WithServicesConfig creates one client per configured service, all sharing doer.
func WithServicesConfig(cfg config.ServicesConfig, doer upstream.Doer) GatewayOption {
	return func(g *Gateway) error {
		targets := []struct {
			name    string
			baseURL string
			dst     **upstream.Client
		}{
			{"profile", cfg.Profile.BaseURL, &g.profile},
			{"payment", cfg.Payment.BaseURL, &g.payment},
			{"transaction", cfg.Transaction.BaseURL, &g.transaction},
			{"account", cfg.Account.BaseURL, &g.account},
		}
		for _, t := range targets {
			if t.baseURL == "" {
				continue
			}
			c, err := upstream.New(t.baseURL, doer)
			if err != nil {
				return fmt.Errorf("%s service: %w", t.name, err)
			}
			*t.dst = c
		}
		return nil
	}
}

// NewGateway applies options and fails when no service is configured.
func NewGateway(options ...GatewayOption) (*Gateway, error) {
	g := &Gateway{}
	for _, opt := range options {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.profile == nil && g.payment == nil && g.transaction == nil && g.account == nil {
		return nil, errors.New("gateway: no domain service configured")
	}
	return g, nil
}

// RegisterHandlers mounts the API under /api/v1. Routes backed by an
// unconfigured service are not mounted.
func (g *Gateway) RegisterHandlers(e *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	api := e.Group("/api/v1", commonMiddlewares...)
	if g.profile != nil {
		api.GET("/customers", listHandler(g.profile.ListCustomers))
		api.GET("/customers/:id", g.getCustomer)
	}
	if g.payment != nil {
		api.GET("/payments", listHandler(g.payment.ListPayments))
	}
	if g.transaction != nil {
		api.GET("/transactions", listHandler(g.transaction.ListTransactions))
	}
	if g.account != nil {
		api.GET("/accounts", listHandler(g.account.ListAccounts))
	}
}
