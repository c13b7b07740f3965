package kbsclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/tunnel"
	"github.com/stretchr/testify/mock"
)

// Transport carries a single broker call.
type Transport interface {
	// Do sends body as JSON to the endpoint and returns the response status
	// and body. An error means the call could not be completed at all.
	Do(method, endpoint string, body any) (status int, respBody []byte, err error)
}

// HTTPTransport talks to the broker directly. It keeps cookies across calls
// since the broker ties /attest to the session opened on /auth.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPTransport(baseURL string, timeout time.Duration) (*HTTPTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (t *HTTPTransport) Do(method, endpoint string, body any) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: could not serialize request: %w", interfaces.ErrEncoding, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, t.BaseURL+endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", interfaces.ErrRemoteCall, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: could not request %s: %w", interfaces.ErrRemoteCall, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: could not read response of %s: %w", interfaces.ErrRemoteCall, endpoint, err)
	}
	return resp.StatusCode, respBody, nil
}

// TunnelTransport relays broker calls through a tunnel bridge.
type TunnelTransport struct {
	Proxy *tunnel.Proxy
}

func (t *TunnelTransport) Do(method, endpoint string, body any) (int, []byte, error) {
	req, err := tunnel.NewRequest(tunnel.Method(method), endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: could not serialize request: %w", interfaces.ErrEncoding, err)
	}

	resp, err := t.Proxy.Call(req)
	if err != nil {
		return 0, nil, err
	}
	if resp.Undelivered() {
		return 0, nil, fmt.Errorf("%w: bridge could not deliver %s: %s", interfaces.ErrRemoteCall, endpoint, resp.Body)
	}
	return int(resp.Status), []byte(resp.Body), nil
}

// MockTransport implements Transport for tests.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Do(method, endpoint string, body any) (int, []byte, error) {
	args := m.Called(method, endpoint, body)
	respBody, _ := args.Get(1).([]byte)
	return args.Int(0), respBody, args.Error(2)
}
