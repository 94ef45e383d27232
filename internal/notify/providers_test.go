package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderKinds(t *testing.T) {
	logger, _ := test.NewNullLogger()

	assert.IsType(t, noopProvider{}, NewProvider("", "", logger))
	assert.IsType(t, logProvider{}, NewProvider("log", "", logger))
	assert.IsType(t, noopProvider{}, NewProvider("noop", "", logger))
	assert.IsType(t, webhookProvider{}, NewProvider("https://hooks.example.com/reset", "", logger))
	assert.IsType(t, noopProvider{}, NewProvider("carrier-pigeon", "", logger))
}

func TestLogProviderWritesDebugEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	provider := NewProvider("log", "", logger)

	require.NoError(t, provider.Send(context.Background(), "hello", "alice@example.com"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "alice@example.com", entry.Data["recipient"])
}

func TestLogProviderSilentAtInfo(t *testing.T) {
	logger, hook := test.NewNullLogger()
	provider := NewProvider("log", "", logger)
	hook.Reset()

	require.NoError(t, provider.Send(context.Background(), "token abc123", "alice@example.com"))
	assert.Empty(t, hook.AllEntries())
}

func TestDefaultProviderDoesNotLogMessages(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	require.NoError(t, NewProvider("", "", logger).Send(context.Background(), "token abc123", "alice@example.com"))
	assert.Empty(t, hook.AllEntries())
}

func TestWebhookProvider(t *testing.T) {
	var received map[string]string
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	provider := NewProvider(server.URL, "hook-token", logger)
	require.NoError(t, provider.Send(context.Background(), "reset: abc", "bob@example.com"))

	assert.Equal(t, "Bearer hook-token", auth)
	assert.Equal(t, "bob@example.com", received["recipient"])
	assert.Equal(t, "reset: abc", received["message"])
}

func TestWebhookProviderRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	err := NewProvider(server.URL, "", logger).Send(context.Background(), "m", "r")
	assert.ErrorIs(t, err, ErrRejected)
}
