package notify_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/notify"
	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier() *notify.HTTPNotifier {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return notify.NewHTTPNotifier(time.Second, "", logger)
}

func TestHTTPNotifier_Name(t *testing.T) {
	assert.Equal(t, "http", newTestNotifier().Name())
}

func TestHTTPNotifier_Send(t *testing.T) {
	var gotMethod, gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestNotifier().Send(context.Background(), request.Request{
		Method: "post",
		URL:    server.URL + "/power/0",
	})

	assert.Equal(t, model.OutcomeSuccess, result.Outcome)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.NoError(t, result.Err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/power/0", gotPath)
	assert.Equal(t, notify.DefaultUserAgent, gotAgent)
}

func TestHTTPNotifier_Send_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := newTestNotifier().Send(context.Background(), request.Request{
		Method: http.MethodGet,
		URL:    server.URL + "/power/1",
	})

	assert.Equal(t, model.OutcomeRemoteRejected, result.Outcome)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, "Not Found", result.Reason)
	assert.Error(t, result.Err)
}

func TestHTTPNotifier_Send_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	result := newTestNotifier().Send(context.Background(), request.Request{
		Method: http.MethodGet,
		URL:    url + "/power/1",
	})

	assert.Equal(t, model.OutcomeTransportFailure, result.Outcome)
	assert.Zero(t, result.StatusCode)
	require.Error(t, result.Err)
}

func TestHTTPNotifier_Send_InvalidURL(t *testing.T) {
	result := newTestNotifier().Send(context.Background(), request.Request{
		Method: http.MethodGet,
		URL:    "://missing-scheme",
	})
	assert.Equal(t, model.OutcomeTransportFailure, result.Outcome)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   model.Outcome
	}{
		{200, model.OutcomeSuccess},
		{204, model.OutcomeSuccess},
		{302, model.OutcomeSuccess},
		{399, model.OutcomeSuccess},
		{400, model.OutcomeRemoteRejected},
		{404, model.OutcomeRemoteRejected},
		{503, model.OutcomeRemoteRejected},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			result := notify.Classify(tt.status)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Equal(t, tt.status, result.StatusCode)
		})
	}
}
