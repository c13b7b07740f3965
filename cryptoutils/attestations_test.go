package cryptoutils

import (
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruteri/tee-keybroker-client/evidence"
	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/stretchr/testify/require"
)

func TestAttestationProviderFor(t *testing.T) {
	p, err := AttestationProviderFor(interfaces.TeeSNP)
	require.NoError(t, err)
	require.Equal(t, interfaces.TeeSNP, p.AttestationType())

	p, err = AttestationProviderFor(interfaces.TeeTDX)
	require.NoError(t, err)
	require.Equal(t, interfaces.TeeTDX, p.AttestationType())

	_, err = AttestationProviderFor(interfaces.Tee("sgx"))
	require.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestDummySNPAttestationProvider(t *testing.T) {
	var measurement [evidence.MeasurementSize]byte
	measurement[0] = 42
	measurement[47] = 24

	reportData := ReportData("424242", "AQ", "AQAB")

	raw, err := DummySNPAttestationProvider{Measurement: measurement}.Attest(reportData)
	require.NoError(t, err)
	require.Len(t, raw, evidence.SnpReportSize)

	var report evidence.SnpReport
	require.NoError(t, report.UnmarshalBinary(raw))
	require.Equal(t, uint32(2), report.Version)
	require.Equal(t, evidence.DefaultGuestPolicy, report.Policy)
	require.Equal(t, measurement, report.Measurement)
	require.Equal(t, reportData, report.ReportData)
}

func TestRemoteAttestationProvider(t *testing.T) {
	var reportData [ReportDataSize]byte
	reportData[0] = 0xab
	want := hex.EncodeToString(reportData[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/attest/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if strings.TrimPrefix(r.URL.Path, "/attest/") != want {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("unexpected report data"))
			return
		}
		_, _ = w.Write([]byte("quote"))
	}))
	defer srv.Close()

	p := &RemoteAttestationProvider{Address: srv.URL, Tee: interfaces.TeeTDX}
	require.Equal(t, interfaces.TeeTDX, p.AttestationType())

	quote, err := p.Attest(reportData)
	require.NoError(t, err)
	require.Equal(t, []byte("quote"), quote)

	var other [ReportDataSize]byte
	other[0] = 0xcd
	_, err = p.Attest(other)
	require.ErrorContains(t, err, "unexpected report data")
}
