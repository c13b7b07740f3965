package kbsclient

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-keybroker-client/api/kbsstub"
	"github.com/ruteri/tee-keybroker-client/cryptoutils"
	"github.com/ruteri/tee-keybroker-client/evidence"
	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/session"
	"github.com/ruteri/tee-keybroker-client/tunnel"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}

func newBroker(t *testing.T, checkBinding bool) (*kbsstub.Handler, *httptest.Server) {
	t.Helper()
	handler := kbsstub.NewHandler(testSecret, checkBinding, slog.Default())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return handler, srv
}

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := session.GenerateKey(rand.Reader, session.DefaultKeyBits)
	require.NoError(t, err)
	return key
}

// staleReportProvider ignores the requested report data.
type staleReportProvider struct{}

func (staleReportProvider) AttestationType() interfaces.Tee { return interfaces.TeeSNP }

func (staleReportProvider) Attest([cryptoutils.ReportDataSize]byte) ([]byte, error) {
	var zero [cryptoutils.ReportDataSize]byte
	return cryptoutils.DummySNPAttestationProvider{}.Attest(zero)
}

func TestAttesterOverHTTP(t *testing.T) {
	_, srv := newBroker(t, true)

	transport, err := NewHTTPTransport(srv.URL, 0)
	require.NoError(t, err)

	attester := &Attester{
		Client:   NewClient(transport, nil),
		Evidence: evidence.NewSnpEvidence(evidence.Milan),
		Hardware: cryptoutils.DummySNPAttestationProvider{},
		Key:      newKey(t),
	}

	secret, err := attester.Run()
	require.NoError(t, err)
	require.Equal(t, testSecret, secret)
}

func TestAttesterOverTunnel(t *testing.T) {
	_, srv := newBroker(t, true)

	forwarder, err := tunnel.NewHTTPForwarder(srv.URL, 0)
	require.NoError(t, err)

	isolated, bridged := net.Pipe()
	bridge := tunnel.NewBridge(tunnel.New(bridged), forwarder, slog.Default())
	done := make(chan error, 1)
	go func() {
		done <- bridge.Run()
		bridged.Close()
	}()

	proxy := tunnel.New(isolated)
	attester := &Attester{
		Client:   NewClient(&TunnelTransport{Proxy: proxy}, nil),
		Evidence: evidence.NewSnpEvidence(evidence.Genoa),
		Hardware: cryptoutils.DummySNPAttestationProvider{},
		Key:      newKey(t),
	}

	secret, err := attester.Run()
	require.NoError(t, err)
	require.Equal(t, testSecret, secret)

	require.NoError(t, proxy.Close())
	require.NoError(t, <-done)

	forwarded, failed := bridge.Stats()
	require.Equal(t, uint64(2), forwarded)
	require.Equal(t, uint64(0), failed)
}

func TestAttesterTunnelUndelivered(t *testing.T) {
	forwarder, err := tunnel.NewHTTPForwarder("http://127.0.0.1:1", 0)
	require.NoError(t, err)

	isolated, bridged := net.Pipe()
	go func() {
		_ = tunnel.NewBridge(tunnel.New(bridged), forwarder, nil).Run()
		bridged.Close()
	}()

	proxy := tunnel.New(isolated)
	defer proxy.Close()

	attester := &Attester{
		Client:   NewClient(&TunnelTransport{Proxy: proxy}, nil),
		Evidence: evidence.NewSnpEvidence(evidence.Milan),
		Hardware: cryptoutils.DummySNPAttestationProvider{},
		Key:      newKey(t),
	}

	_, err = attester.Run()
	require.ErrorIs(t, err, interfaces.ErrRemoteCall)
}

func TestAttesterRejectedBinding(t *testing.T) {
	_, srv := newBroker(t, true)

	transport, err := NewHTTPTransport(srv.URL, 0)
	require.NoError(t, err)

	attester := &Attester{
		Client:   NewClient(transport, nil),
		Evidence: evidence.NewSnpEvidence(evidence.Milan),
		Hardware: staleReportProvider{},
		Key:      newKey(t),
	}

	_, err = attester.Run()
	var brokerErr *BrokerError
	require.ErrorAs(t, err, &brokerErr)
	require.Equal(t, 401, brokerErr.Status)
	require.Equal(t, AttestEndpoint, brokerErr.Endpoint)
}

func TestAttesterWrongKeyReleased(t *testing.T) {
	transport := &MockTransport{}
	attesterKey := newKey(t)
	otherKey := newKey(t)

	envelope, err := cryptoutils.EncryptSecret(&otherKey.PublicKey, testSecret)
	require.NoError(t, err)
	envelopeJSON, err := json.Marshal(envelope)
	require.NoError(t, err)

	transport.On("Do", "POST", AuthEndpoint, mock.Anything).Return(200, []byte(`{"nonce":"424242","extra-params":""}`), nil)
	transport.On("Do", "POST", AttestEndpoint, mock.Anything).Return(200, envelopeJSON, nil)

	attester := &Attester{
		Client:   NewClient(transport, nil),
		Evidence: evidence.NewSnpEvidence(evidence.Milan),
		Hardware: cryptoutils.DummySNPAttestationProvider{},
		Key:      attesterKey,
	}

	_, err = attester.Run()
	require.ErrorIs(t, err, interfaces.ErrDecryption)
}

func TestAttesterHardwareMismatch(t *testing.T) {
	attester := &Attester{
		Client:   NewClient(&MockTransport{}, nil),
		Evidence: evidence.NewTdxEvidence(),
		Hardware: cryptoutils.DummySNPAttestationProvider{},
		Key:      newKey(t),
	}

	_, err := attester.Run()
	require.ErrorContains(t, err, "cannot feed")

	attester.Key = nil
	_, err = attester.Run()
	require.Error(t, err)
}
