// Package apiclient talks to the investment platform's REST API: VAPID key
// discovery, push subscription registration, and the notification feed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/codeGROOVE-dev/retry"

	"estate-notify-go/internal/models"
)

// Identity selects which registration route a subscription is persisted
// under; end users and organization admins register on different routes.
type Identity string

const (
	IdentityUser     Identity = "user"
	IdentityOrgAdmin Identity = "org-admin"
)

const maxResponseBytes = 4 << 20

// Client is the HTTP client for the remote backend. The base URL is
// required configuration; there is deliberately no baked-in production
// fallback.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.Status, e.Body)
}

// doJSON issues one request with retries. Network errors and 5xx responses
// retry with backoff; 4xx responses are unrecoverable.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
	}

	return retry.Do(
		func() error {
			var rdr io.Reader
			if payload != nil {
				rdr = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if c.token != "" {
				req.Header.Set("Authorization", "Bearer "+c.token)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			if err != nil {
				return err
			}

			if resp.StatusCode >= http.StatusInternalServerError {
				return &HTTPError{Status: resp.StatusCode, Body: snippet(data)}
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return retry.Unrecoverable(&HTTPError{Status: resp.StatusCode, Body: snippet(data)})
			}

			if out != nil {
				if err := json.Unmarshal(data, out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("decode %s %s response: %w", method, path, err))
				}
			}
			return nil
		},
		retry.Attempts(4),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(3*time.Second),
		retry.MaxJitter(250*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Retrying %s %s after error (attempt %d): %v", method, path, n+1, err)
		}),
	)
}

func snippet(data []byte) string {
	const max = 200
	s := string(data)
	if len(s) > max {
		return s[:max]
	}
	return s
}

// VAPIDPublicKey fetches the application server key used to parameterize
// subscriptions. The backend serves it either at the top level or nested
// under data.
func (c *Client) VAPIDPublicKey(ctx context.Context) (string, error) {
	var body struct {
		PublicKey string          `json:"publicKey"`
		Data      json.RawMessage `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications/vapid-public-key", nil, &body); err != nil {
		return "", err
	}
	if body.PublicKey != "" {
		return body.PublicKey, nil
	}
	if len(body.Data) > 0 {
		var nested struct {
			PublicKey string `json:"publicKey"`
		}
		if err := json.Unmarshal(body.Data, &nested); err == nil && nested.PublicKey != "" {
			return nested.PublicKey, nil
		}
	}
	return "", errors.New("apiclient: vapid key response missing publicKey")
}

// RegisterSubscription persists a push subscription server-side under the
// given identity's route.
func (c *Client) RegisterSubscription(ctx context.Context, id Identity, payload *webpush.Subscription) error {
	path := "/api/notifications/subscribe"
	if id == IdentityOrgAdmin {
		path = "/api/org-admin/notifications/subscribe"
	}
	return c.doJSON(ctx, http.MethodPost, path, payload, nil)
}

// Notifications fetches the notification feed, tolerating every envelope
// shape the backend is known to serve.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications", nil, &raw); err != nil {
		return nil, err
	}
	return models.ParseNotificationList(raw)
}

// MarkRead flips one notification's read flag server-side.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("apiclient: notification id is required")
	}
	return c.doJSON(ctx, http.MethodPatch, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead flips every notification's read flag in one call.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPatch, "/api/notifications/read-all", nil, nil)
}
