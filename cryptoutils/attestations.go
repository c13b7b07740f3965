package cryptoutils

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sev_client "github.com/google/go-sev-guest/client"
	tdx_client "github.com/google/go-tdx-guest/client"
	"github.com/ruteri/tee-keybroker-client/evidence"
	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// AttestationProvider produces a raw hardware report or quote with the given
// report data embedded.
type AttestationProvider interface {
	AttestationType() interfaces.Tee
	Attest(reportData [ReportDataSize]byte) ([]byte, error)
}

// AttestationProviderFor returns the local hardware provider for a TEE kind.
func AttestationProviderFor(tee interfaces.Tee) (AttestationProvider, error) {
	switch tee {
	case interfaces.TeeSNP:
		return &SNPAttestationProvider{}, nil
	case interfaces.TeeTDX:
		return &DCAPAttestationProvider{}, nil
	default:
		return nil, errors.ErrUnsupported
	}
}

// RemoteAttestationProvider fetches reports from an HTTP quote service
// reachable at {Address}/attest/{hex report data}.
type RemoteAttestationProvider struct {
	Address string
	Tee     interfaces.Tee

	// Client defaults to a client with a 30 second timeout.
	Client *http.Client
}

func (p *RemoteAttestationProvider) AttestationType() interfaces.Tee { return p.Tee }

func (p *RemoteAttestationProvider) Attest(reportData [ReportDataSize]byte) ([]byte, error) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	url := fmt.Sprintf("%s/attest/%s", p.Address, hex.EncodeToString(reportData[:]))
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawReport, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report from response: %w", err)
	}
	return rawReport, nil
}

// SNPAttestationProvider requests reports from the SEV-SNP guest device.
type SNPAttestationProvider struct{}

func (SNPAttestationProvider) AttestationType() interfaces.Tee { return interfaces.TeeSNP }

func (SNPAttestationProvider) Attest(reportData [ReportDataSize]byte) ([]byte, error) {
	d, err := sev_client.OpenDevice()
	if err != nil {
		return nil, fmt.Errorf("opening sev-guest device: %w", err)
	}
	defer d.Close()

	return sev_client.GetRawReport(d, reportData)
}

// DCAPAttestationProvider produces TDX quotes, preferring configfs-tsm over
// the legacy device.
type DCAPAttestationProvider struct{}

func (DCAPAttestationProvider) AttestationType() interfaces.Tee { return interfaces.TeeTDX }

func (DCAPAttestationProvider) Attest(reportData [ReportDataSize]byte) ([]byte, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, err
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// DummySNPAttestationProvider builds an unsigned SNP report carrying
// Measurement and the requested report data. It is meant for development
// against brokers that do not verify signatures.
type DummySNPAttestationProvider struct {
	Measurement [evidence.MeasurementSize]byte
}

func (DummySNPAttestationProvider) AttestationType() interfaces.Tee { return interfaces.TeeSNP }

func (p DummySNPAttestationProvider) Attest(reportData [ReportDataSize]byte) ([]byte, error) {
	report := evidence.SnpReport{
		Version:     2,
		Policy:      evidence.DefaultGuestPolicy,
		Measurement: p.Measurement,
		ReportData:  reportData,
	}
	return report.MarshalBinary()
}
