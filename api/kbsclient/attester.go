package kbsclient

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/ruteri/tee-keybroker-client/cryptoutils"
	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/session"
)

// Attester runs one full attestation handshake and returns the released
// secret.
type Attester struct {
	Client   *Client
	Evidence interfaces.EvidenceProvider
	Hardware cryptoutils.AttestationProvider

	// Key is the ephemeral session key. Run uses each key for one session.
	Key *rsa.PrivateKey
}

// Run drives request, challenge, attestation and secret release. The
// hardware report is requested after the challenge with the nonce and the
// session key bound into its report data.
func (a *Attester) Run() ([]byte, error) {
	if a.Key == nil {
		return nil, errors.New("attester has no session key")
	}
	if a.Hardware.AttestationType() != a.Evidence.Tee() {
		return nil, fmt.Errorf("hardware provider for %s cannot feed %s evidence", a.Hardware.AttestationType(), a.Evidence.Tee())
	}

	cs := session.New(a.Key)

	request, err := cs.Request(a.Evidence)
	if err != nil {
		return nil, err
	}

	challenge, err := a.Client.Auth(request)
	if err != nil {
		return nil, err
	}

	nonce, err := cs.Challenge(challenge)
	if err != nil {
		return nil, err
	}

	n, e, err := cs.EncodedPublicKey()
	if err != nil {
		return nil, err
	}

	report, err := a.Hardware.Attest(cryptoutils.ReportData(nonce, n, e))
	if err != nil {
		return nil, fmt.Errorf("could not obtain hardware report: %w", err)
	}
	a.Evidence.UpdateReport(report)

	attestation, err := cs.Attestation(n, e, a.Evidence)
	if err != nil {
		return nil, err
	}

	envelope, err := a.Client.Attest(attestation)
	if err != nil {
		return nil, err
	}

	return cs.Secret(envelope)
}
