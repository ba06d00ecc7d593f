package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("", "")
	assert.Error(t, err)

	c, err := New("https://api.test/", "tok")
	require.NoError(t, err)
	assert.Equal(t, "https://api.test", c.baseURL)
}

func TestVAPIDPublicKeyEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"top level", `{"publicKey":"BKey123"}`},
		{"nested under data", `{"data":{"publicKey":"BKey123"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/notifications/vapid-public-key", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(srv.URL, "tok")
			require.NoError(t, err)
			key, err := c.VAPIDPublicKey(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "BKey123", key)
		})
	}
}

func TestVAPIDPublicKeyMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	_, err := c.VAPIDPublicKey(context.Background())
	assert.Error(t, err)
}

func TestVAPIDPublicKeyServerErrorRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	_, err := c.VAPIDPublicKey(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 4, hits.Load(), "5xx responses retry up to the attempt limit")
}

func TestVAPIDPublicKeyRecoversAfterTransientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"publicKey":"BRecovered"}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	key, err := c.VAPIDPublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BRecovered", key)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "no such route", http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	_, err := c.VAPIDPublicKey(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load(), "4xx responses are unrecoverable")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestMalformedResponseIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"publicKey":`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	_, err := c.VAPIDPublicKey(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestRegisterSubscriptionRoutes(t *testing.T) {
	payload := &webpush.Subscription{
		Endpoint: "https://push.example/wp/abc",
		Keys:     webpush.Keys{P256dh: "cDI1NmRo", Auth: "YXV0aA=="},
	}

	tests := []struct {
		identity Identity
		wantPath string
	}{
		{IdentityUser, "/api/notifications/subscribe"},
		{IdentityOrgAdmin, "/api/org-admin/notifications/subscribe"},
	}
	for _, tt := range tests {
		t.Run(string(tt.identity), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var got webpush.Subscription
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				assert.Equal(t, payload.Endpoint, got.Endpoint)
				assert.Equal(t, payload.Keys.P256dh, got.Keys.P256dh)
				assert.Equal(t, payload.Keys.Auth, got.Keys.Auth)
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			c, _ := New(srv.URL, "")
			require.NoError(t, c.RegisterSubscription(context.Background(), tt.identity, payload))
		})
	}
}

func TestNotificationsUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications", r.URL.Path)
		w.Write([]byte(`{"data":{"notifications":[
			{"id":"n1","title":"Dividend paid","read":false,"createdAt":"2026-08-01T10:00:00Z"},
			{"id":"n2","title":"KYC approved","read":true,"createdAt":"2026-08-02T10:00:00Z"}
		]}}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	got, err := c.Notifications(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].ID)
	assert.True(t, got[1].Read)
}

func TestMarkReadRoutes(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "")
	ctx := context.Background()

	require.NoError(t, c.MarkRead(ctx, "n1"))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/notifications/n1/read", gotPath)

	require.NoError(t, c.MarkAllRead(ctx))
	assert.Equal(t, "/api/notifications/read-all", gotPath)

	assert.Error(t, c.MarkRead(ctx, ""))
}
