package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

const maxErrorBodySnippet = 512

// Client issues authenticated JSON calls against the remote backup service.
// One client is built per connector invocation from the asset configuration
// and discarded when the invocation completes.  The client performs no
// retries, retry policy belongs to callers.
type Client struct {
	baseUrl    string
	authHeader string
	httpClient *http.Client
}

func NewClient(asset domain.AssetConfig, timeout time.Duration) *Client {
	return &Client{
		baseUrl:    strings.TrimRight(strings.TrimSpace(asset.Endpoint), "/"),
		authHeader: "QSDK " + strings.TrimSpace(asset.AccessToken),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Call performs one HTTP exchange against the remote service.  The path is
// relative to the asset endpoint.  A non-nil out is populated from the
// response body.  Errors are one of TransportError, RemoteError or
// DecodeError.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}, out interface{}) error {

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	url := c.baseUrl + path

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("authtoken", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsedTime := time.Since(startTime)

	logger.Log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"duration": elapsedTime,
	}).Debug("Remote service call")

	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err)
	}

	// the service signals some failures with 399
	if resp.StatusCode < 200 || resp.StatusCode >= 399 {
		return &RemoteError{StatusCode: resp.StatusCode, Body: snippet(respBytes)}
	}

	if out == nil {
		return nil
	}

	// Some remote operations legitimately return an empty 200
	if len(bytes.TrimSpace(respBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBytes, out); err != nil {
		return &DecodeError{Err: err}
	}

	return nil
}

func classifyTransportError(err error) error {
	kind := TransportNetwork

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = TransportTimeout
	} else if errors.Is(err, context.DeadlineExceeded) {
		kind = TransportTimeout
	}

	return &TransportError{Kind: kind, Err: err}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodySnippet {
		return s[:maxErrorBodySnippet]
	}
	return s
}
