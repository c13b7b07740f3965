package tunnel

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Forwarder delivers a bridged call to the broker.
type Forwarder interface {
	// Forward returns the broker's response, or a *RemoteCallError when the
	// call could not be completed.
	Forward(req *Request) (*Response, error)
}

// HTTPForwarder forwards calls to a broker over HTTP. The client keeps
// cookies so the session cookie issued on /auth is replayed on /attest.
type HTTPForwarder struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPForwarder creates a forwarder with a cookie jar and the given
// per-call timeout (zero means no timeout).
func NewHTTPForwarder(baseURL string, timeout time.Duration) (*HTTPForwarder, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPForwarder{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (f *HTTPForwarder) Forward(req *Request) (*Response, error) {
	if !req.Method.Valid() {
		return nil, &RemoteCallError{Endpoint: req.Endpoint, Err: fmt.Errorf("unsupported method %q", req.Method)}
	}

	var body io.Reader
	if req.HasBody() {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(string(req.Method), f.BaseURL+req.Endpoint, body)
	if err != nil {
		return nil, &RemoteCallError{Endpoint: req.Endpoint, Err: err}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, &RemoteCallError{Endpoint: req.Endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	// Real statuses never reach StatusUndelivered.
	if httpResp.StatusCode < 100 || httpResp.StatusCode > 599 {
		return nil, &RemoteCallError{Endpoint: req.Endpoint, Err: fmt.Errorf("invalid HTTP status %d", httpResp.StatusCode)}
	}

	// Read errors are ignored, whatever was read is relayed.
	respBody, _ := io.ReadAll(httpResp.Body)

	return &Response{
		Status: uint16(httpResp.StatusCode),
		Body:   string(respBody),
	}, nil
}

// Probe issues a GET on the base URL. Any HTTP response, including 404,
// means the broker is reachable.
func (f *HTTPForwarder) Probe() error {
	resp, err := f.Client.Get(f.BaseURL)
	if err != nil {
		return &RemoteCallError{Endpoint: "/", Err: err}
	}
	resp.Body.Close()
	return nil
}
