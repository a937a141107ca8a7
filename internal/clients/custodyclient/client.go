package custodyclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/clients/client"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
)

const (
	balanceEndpoint  = "/v1/vaults/%s/balance"
	releasesEndpoint = "/v1/vaults/%s/releases"

	idempotencyKeyHeader = "Idempotency-Key"
)

type Client struct {
	httpClient *http.Client
	cfg        *config.CustodyConfig
}

func (c *Client) GetBaseURL() string {
	return strings.TrimSuffix(c.cfg.URL, "/")
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

// NewClient returns nil when custody is not configured.
func NewClient(cfg *config.CustodyConfig) *Client {
	if cfg == nil {
		return nil
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) GetVaultBalance(ctx context.Context, authority string) (uint64, error) {
	if authority == "" {
		return 0, fmt.Errorf("empty vault authority provided")
	}

	type empty struct{}
	type balanceResponse struct {
		Balance uint64 `json:"balance,string"`
	}

	callForBalance := func() (uint64, error) {
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf(balanceEndpoint, url.PathEscape(authority)),
			TemplatePath: fmt.Sprintf(balanceEndpoint, "{authority}"),
		}

		resp, err := client.SendRequest[empty, balanceResponse](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return 0, err
		}
		return resp.Balance, nil
	}

	balance, err := clientCallWithRetry(ctx, callForBalance, c.cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to get custody balance of vault %s: %w", authority, err)
	}
	return balance, nil
}

func (c *Client) Release(ctx context.Context, req *ReleaseRequest) error {
	if req.ID == "" {
		return fmt.Errorf("release request without id")
	}

	type releaseResponse struct {
		ReleaseID string `json:"release_id"`
	}

	callRelease := func() (struct{}, error) {
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf(releasesEndpoint, url.PathEscape(req.Vault)),
			TemplatePath: fmt.Sprintf(releasesEndpoint, "{authority}"),
			Headers:      map[string]string{idempotencyKeyHeader: req.ID},
		}

		_, err := client.SendRequest[ReleaseRequest, releaseResponse](ctx, c, http.MethodPost, opts, req)
		return struct{}{}, err
	}

	if _, err := clientCallWithRetry(ctx, callRelease, c.cfg); err != nil {
		return fmt.Errorf("failed to release %d from vault %s: %w", req.Amount, req.Vault, err)
	}
	return nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.CustodyConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(client.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("custody request failed, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
