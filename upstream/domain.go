package upstream

import (
	"context"
	"net/url"
)

// Resource paths on the domain services.
const (
	CustomersPath    = "customers"
	PaymentsPath     = "payments"
	TransactionsPath = "transactions"
	AccountsPath     = "accounts"
)

// ListCustomers lists customer profiles.
func (c *Client) ListCustomers(ctx context.Context, query url.Values) ([]Record, error) {
	return c.List(ctx, CustomersPath, query)
}

// GetCustomer fetches one customer profile.
func (c *Client) GetCustomer(ctx context.Context, id string) (Record, error) {
	return c.Get(ctx, CustomersPath+"/"+url.PathEscape(id))
}

// ListPayments lists payments.
func (c *Client) ListPayments(ctx context.Context, query url.Values) ([]Record, error) {
	return c.List(ctx, PaymentsPath, query)
}

// ListTransactions lists transactions.
func (c *Client) ListTransactions(ctx context.Context, query url.Values) ([]Record, error) {
	return c.List(ctx, TransactionsPath, query)
}

// ListAccounts lists accounts.
func (c *Client) ListAccounts(ctx context.Context, query url.Values) ([]Record, error) {
	return c.List(ctx, AccountsPath, query)
}
