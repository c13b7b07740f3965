package kbsclient

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/registration"
)

// Broker endpoints.
const (
	AuthEndpoint   = "/kbs/v0/auth"
	AttestEndpoint = "/kbs/v0/attest"
)

// BrokerError is a non-2xx answer from the broker.
type BrokerError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("%s returned error %d: %s", e.Endpoint, e.Status, e.Body)
}

// Client issues the broker calls of the registration and attestation flows.
type Client struct {
	Transport Transport
	Log       *slog.Logger
}

func NewClient(transport Transport, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{Transport: transport, Log: log}
}

func (c *Client) post(endpoint string, body any) ([]byte, error) {
	status, respBody, err := c.Transport.Do(http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	c.Log.Debug("Broker response", "endpoint", endpoint, "status", status)

	if status < 200 || status >= 300 {
		return nil, &BrokerError{Endpoint: endpoint, Status: status, Body: string(respBody)}
	}
	return respBody, nil
}

// Register posts a registration payload to its endpoint.
func (c *Client) Register(r registration.Registrar) error {
	if _, err := c.post(r.Endpoint(), r); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	c.Log.Info("Registration success", "endpoint", r.Endpoint())
	return nil
}

// Auth opens a session and returns the broker challenge.
func (c *Client) Auth(req *interfaces.Request) (*interfaces.Challenge, error) {
	body, err := c.post(AuthEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	var challenge interfaces.Challenge
	if err := json.Unmarshal(body, &challenge); err != nil {
		return nil, fmt.Errorf("could not parse challenge: %w", err)
	}
	c.Log.Info("Authentication success", "nonce", challenge.Nonce)
	return &challenge, nil
}

// Attest submits the attestation document and returns the broker's answer,
// the JWE envelope of the released secret.
func (c *Client) Attest(att *interfaces.Attestation) ([]byte, error) {
	body, err := c.post(AttestEndpoint, att)
	if err != nil {
		return nil, fmt.Errorf("attestation failed: %w", err)
	}
	c.Log.Info("Attestation success")
	return body, nil
}
