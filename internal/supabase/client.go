// Package supabase implements the remote data service on top of the PostgREST
// (/rest/v1) and GoTrue (/auth/v1) HTTP APIs.
package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"resty.dev/v3"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/metrics"
)

const (
	postsPath = "/rest/v1/posts"
	usersPath = "/rest/v1/users"
	likesPath = "/rest/v1/likes"
)

type Client struct {
	client  *resty.Client
	anonKey string
	logger  *slog.Logger
}

var _ backend.Service = (*Client)(nil)

func NewClient(config *ClientConfig, logger *slog.Logger) *Client {
	settings := config.TransportSettings
	if settings == nil {
		settings = DefaultConfig.TransportSettings
	}

	client := resty.NewWithTransportSettings(settings).
		SetBaseURL(strings.TrimRight(config.URL, "/")).
		SetHeader("apikey", config.AnonKey).
		SetTimeout(config.Timeout)

	client.AddResponseMiddleware(metricMiddleware)
	for _, m := range config.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}
	for _, m := range config.RequestMiddlewares {
		client.AddRequestMiddleware(m)
	}

	return &Client{
		client:  client,
		anonKey: config.AnonKey,
		logger:  logger.With("component", "supabase.Client"),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) NewAuth() backend.Auth {
	return &Auth{client: c, logger: c.logger.With("component", "supabase.Auth")}
}

// r starts a request authenticated as the context's user, or anonymously.
func (c *Client) r(ctx context.Context) *resty.Request {
	token, ok := backend.AccessToken(ctx)
	if !ok {
		token = c.anonKey
	}
	return c.client.R().
		WithContext(ctx).
		SetAuthToken(token).
		SetError(&apiError{})
}

func metricMiddleware(_ *resty.Client, response *resty.Response) error {
	path := response.Request.URL
	if reqURL, err := url.Parse(response.Request.URL); err == nil {
		path = reqURL.Path
	}

	metrics.BackendRequestDuration.WithLabelValues(
		response.Request.Method,
		path,
		fmt.Sprintf("%d", response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}

// inList renders ids as a PostgREST in.(...) filter value.
func inList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}
