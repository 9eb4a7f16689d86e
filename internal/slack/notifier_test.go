package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierPostsJSON(t *testing.T) {
	t.Parallel()

	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(Config{WebhookURL: server.URL + "/services/T/B/X", HTTPClient: server.Client()})
	require.NoError(t, err)

	msg := Message{Text: "hello", Blocks: []Block{section("hello")}}
	require.NoError(t, notifier.Notify(context.Background(), msg))
	assert.Equal(t, msg, got)
}

func TestWebhookNotifierDeliveryError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no_service\n")
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(Config{WebhookURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	err = notifier.Notify(context.Background(), Message{})
	var dErr *DeliveryError
	require.True(t, errors.As(err, &dErr), "Notify error = %T, want *DeliveryError", err)
	assert.Equal(t, http.StatusNotFound, dErr.StatusCode)
	assert.Equal(t, "no_service", dErr.Body)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load(), "delivery is not retried")
}

func TestWebhookNotifierTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	notifier, err := NewWebhookNotifier(Config{WebhookURL: server.URL})
	require.NoError(t, err)

	err = notifier.Notify(context.Background(), Message{})
	require.Error(t, err)
	var dErr *DeliveryError
	assert.False(t, errors.As(err, &dErr))
}

func TestNewWebhookNotifierRejectsBadURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "hooks.slack.com/services/x", "ftp://hooks.slack.com/x", "https://"} {
		_, err := NewWebhookNotifier(Config{WebhookURL: raw})
		assert.Error(t, err, "NewWebhookNotifier(%q)", raw)
	}
}
