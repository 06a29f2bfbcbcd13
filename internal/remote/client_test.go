package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"

	"github.com/go-playground/assert/v2"
)

func init() {
	logger.InitLogger()
}

func testAsset(endpoint string) domain.AssetConfig {
	return domain.AssetConfig{
		Endpoint:         endpoint,
		AccessToken:      "test-token",
		PlatformAPIToken: "platform-token",
	}
}

func TestCallSendsAuthHeaders(t *testing.T) {

	var gotAuthHeader, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuthHeader = req.Header.Get("authtoken")
		gotContentType = req.Header.Get("Content-Type")
		w.Write([]byte(`{"commservEvents": []}`))
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	err := client.Probe(context.Background())

	assert.Equal(t, err, nil)
	assert.Equal(t, gotAuthHeader, "QSDK test-token")
	assert.Equal(t, gotContentType, "application/json")
}

func TestCallReturnsRemoteErrorOnNon2xx(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	err := client.Probe(context.Background())

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected a RemoteError, got %v", err)
	}

	assert.Equal(t, remoteErr.StatusCode, http.StatusServiceUnavailable)

	if !strings.Contains(err.Error(), "503") {
		t.Errorf("expected the error message to name the http status, got %q", err.Error())
	}
}

func TestCallTreatsStatus399AsRemoteError(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(399)
		w.Write([]byte("session expired"))
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	err := client.Probe(context.Background())

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected a RemoteError, got %v", err)
	}

	assert.Equal(t, remoteErr.StatusCode, 399)
}

func TestCallAcceptsRedirectRangeStatus(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	var out struct{}
	err := client.Call(context.Background(), http.MethodGet, "/events?level=1", nil, &out)

	assert.Equal(t, err, nil)
}

func TestCallReturnsDecodeErrorOnMalformedJson(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"commservEvents": [`))
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	err := client.Probe(context.Background())

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a DecodeError, got %v", err)
	}
}

func TestCallReturnsTimeoutTransportError(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 10*time.Millisecond)

	err := client.Probe(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a TransportError, got %v", err)
	}

	assert.Equal(t, transportErr.Kind, TransportTimeout)
}

func TestCallReturnsNetworkTransportError(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client := NewClient(testAsset(endpoint), 5*time.Second)

	err := client.Probe(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a TransportError, got %v", err)
	}

	assert.Equal(t, transportErr.Kind, TransportNetwork)
}

func TestCallAcceptsEmpty2xxResponse(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	var out struct{}
	err := client.Call(context.Background(), http.MethodGet, "/events?level=1", nil, &out)

	assert.Equal(t, err, nil)
}

func TestRemoteErrorBodyIsTruncated(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer server.Close()

	client := NewClient(testAsset(server.URL), 5*time.Second)

	err := client.Probe(context.Background())

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected a RemoteError, got %v", err)
	}

	if len(remoteErr.Body) > maxErrorBodySnippet {
		t.Errorf("expected error body to be truncated to %d bytes, got %d", maxErrorBodySnippet, len(remoteErr.Body))
	}
}
