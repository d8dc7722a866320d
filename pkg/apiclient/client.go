// Package apiclient wraps the taskcamp REST API. It attaches bearer
// credentials from a TokenStore to every request, transparently
// refreshes the access token once per request on a 401, and maps
// transport failures onto a small typed error taxonomy.
package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"golang.org/x/sync/singleflight"

	"github.com/taskcamp/taskcamp/pkg/config"
	"github.com/taskcamp/taskcamp/pkg/logutils"
	"github.com/taskcamp/taskcamp/pkg/metrics"
)

// Envelope is the `{statusCode, data, message, success}` wrapper every
// endpoint responds with.
type Envelope[T any] struct {
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type Client struct {
	http   *req.Client
	tokens TokenStore

	// Concurrent 401s must not race two refresh calls: the backend may
	// rotate the refresh token, invalidating the loser's replay.
	refreshGroup singleflight.Group
}

func New(cfg *config.Config, tokens TokenStore) *Client {
	c := &Client{tokens: tokens}

	c.http = req.C().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetUserAgent("taskcamp-go")

	c.http.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		if token := c.tokens.Access(); token != "" {
			r.SetBearerAuthToken(token)
		}
		return nil
	})

	c.http.OnAfterResponse(func(_ *req.Client, resp *req.Response) error {
		if resp.Response == nil {
			return nil
		}
		metrics.RequestsCount.WithLabelValues(
			resp.Request.Method, strconv.Itoa(resp.StatusCode)).Inc()
		logutils.Log.WithFields(logutils.Fields{
			"method": resp.Request.Method,
			"url":    resp.Request.RawURL,
			"status": resp.StatusCode,
		}).Debug("api response")
		return nil
	})

	return c
}

// LoggedIn reports whether an access token is persisted. It says
// nothing about the token still being accepted by the server.
func (c *Client) LoggedIn() bool {
	return c.tokens.Access() != ""
}

// Tokens exposes the underlying store, for the auth flows that persist
// or clear the pair outside the refresh protocol.
func (c *Client) Tokens() TokenStore { return c.tokens }

// roundTrip sends one request, applying the refresh protocol: on the
// first 401 it refreshes the tokens and re-dispatches a fresh request
// exactly once. The build closure runs per attempt so the retried
// request picks up the rotated bearer token.
func (c *Client) roundTrip(ctx context.Context, method, path string, build func(*req.Request)) (*req.Response, error) {
	send := func() (*req.Response, error) {
		r := c.http.R().SetContext(ctx)
		if build != nil {
			build(r)
		}
		return r.Send(method, path)
	}

	resp, err := send()
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if err := c.refreshTokens(ctx); err != nil {
		return nil, err
	}
	resp, err = send()
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

// refreshTokens performs the silent refresh. All requests failing with
// a 401 at the same time share a single in-flight refresh call.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh := c.tokens.Refresh()
		if refresh == "" {
			c.tokens.Clear()
			metrics.TokenRefreshCount.WithLabelValues("missing").Inc()
			return nil, ErrSessionExpired
		}

		var env Envelope[tokenPair]
		resp, err := c.http.R().SetContext(ctx).
			SetBody(map[string]string{"refreshToken": refresh}).
			SetSuccessResult(&env).
			Post("/auth/refresh-token")
		if err != nil {
			metrics.TokenRefreshCount.WithLabelValues("error").Inc()
			return nil, classify(err)
		}
		if !resp.IsSuccessState() || env.Data.AccessToken == "" {
			c.tokens.Clear()
			metrics.TokenRefreshCount.WithLabelValues("rejected").Inc()
			logutils.Log.Warn("token refresh rejected, clearing credentials")
			return nil, ErrSessionExpired
		}

		// Keep the old refresh token unless the server rotated it.
		if env.Data.RefreshToken == "" {
			env.Data.RefreshToken = refresh
		}
		c.tokens.SetTokens(env.Data.AccessToken, env.Data.RefreshToken)
		metrics.TokenRefreshCount.WithLabelValues("ok").Inc()
		return nil, nil
	})
	return err
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// classify maps a transport-level error onto the taxonomy: the request
// either reached the wire and got no answer, or never got that far.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &NetworkError{Err: err}
	}
	return &RequestError{Err: err}
}

// doJSON sends a request and decodes the response envelope, returning
// the payload on success and a ServerError carrying the envelope
// message otherwise.
func doJSON[T any](ctx context.Context, c *Client, method, path string, build func(*req.Request)) (T, error) {
	var env Envelope[T]
	var failure Envelope[any]

	resp, err := c.roundTrip(ctx, method, path, func(r *req.Request) {
		r.SetSuccessResult(&env).SetErrorResult(&failure)
		if build != nil {
			build(r)
		}
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if !resp.IsSuccessState() {
		var zero T
		return zero, &ServerError{StatusCode: resp.StatusCode, Message: failure.Message}
	}
	return env.Data, nil
}

// get/post/put/del are the verb-based entry points the service methods
// build on.
func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return doJSON[T](ctx, c, http.MethodGet, path, nil)
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return doJSON[T](ctx, c, http.MethodPost, path, withBody(body))
}

func put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return doJSON[T](ctx, c, http.MethodPut, path, withBody(body))
}

func del[T any](ctx context.Context, c *Client, path string) (T, error) {
	return doJSON[T](ctx, c, http.MethodDelete, path, nil)
}

func withBody(body any) func(*req.Request) {
	return func(r *req.Request) {
		if body != nil {
			r.SetBody(body)
		}
	}
}
