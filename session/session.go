package session

import (
	"crypto/rsa"
	"fmt"
	"io"
	"math/big"

	"github.com/ruteri/tee-keybroker-client/cryptoutils"
	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// DefaultKeyBits is the size of ephemeral session keys.
const DefaultKeyBits = 2048

// Phase is the handshake progress of a Session.
type Phase int

const (
	Created Phase = iota
	Requested
	Challenged
	Attested
)

func (p Phase) String() string {
	switch p {
	case Created:
		return "created"
	case Requested:
		return "requested"
	case Challenged:
		return "challenged"
	case Attested:
		return "attested"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Session is a single attestation handshake with the broker. It owns the
// ephemeral private key and the broker nonce. A Session is not safe for
// concurrent use and must not be reused across handshakes.
type Session struct {
	key   *rsa.PrivateKey
	nonce string
	phase Phase
}

// GenerateKey creates an ephemeral RSA key from the given random source.
func GenerateKey(random io.Reader, bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, fmt.Errorf("could not generate session key: %w", err)
	}
	return key, nil
}

// New creates a session around the given private key.
func New(key *rsa.PrivateKey) *Session {
	return &Session{key: key, phase: Created}
}

func (s *Session) Phase() Phase { return s.phase }

// Nonce returns the broker nonce once a challenge was processed.
func (s *Session) Nonce() (string, bool) {
	return s.nonce, s.phase >= Challenged
}

func (s *Session) PublicKey() *rsa.PublicKey {
	if s.key == nil {
		return nil
	}
	return &s.key.PublicKey
}

// EncodedPublicKey returns the base64url encoded modulus and exponent of the
// session key.
func (s *Session) EncodedPublicKey() (n, e string, err error) {
	if s.key == nil {
		return "", "", fmt.Errorf("%w: session has no key", interfaces.ErrEncoding)
	}
	n, err = cryptoutils.EncodeKey(s.key.N)
	if err != nil {
		return "", "", err
	}
	e, err = cryptoutils.EncodeKey(big.NewInt(int64(s.key.E)))
	if err != nil {
		return "", "", err
	}
	return n, e, nil
}

// Request builds the session opening document.
func (s *Session) Request(ev interfaces.EvidenceProvider) (*interfaces.Request, error) {
	if s.phase != Created {
		return nil, interfaces.ErrAlreadyRequested
	}

	req := &interfaces.Request{
		Version:     ev.Version(),
		Tee:         ev.Tee(),
		ExtraParams: string(ev.ExtraParams()),
	}
	s.phase = Requested
	return req, nil
}

// Challenge stores the broker nonce and returns it.
func (s *Session) Challenge(challenge *interfaces.Challenge) (string, error) {
	switch s.phase {
	case Created:
		return "", interfaces.ErrNotRequested
	case Challenged, Attested:
		return "", interfaces.ErrAlreadyChallenged
	}
	if challenge == nil {
		return "", fmt.Errorf("%w: nil challenge", interfaces.ErrProtocol)
	}

	s.nonce = challenge.Nonce
	s.phase = Challenged
	return s.nonce, nil
}

// Attestation builds the attestation document from the encoded public key and
// the provider's evidence. The caller must have written the report data
// binding (see cryptoutils.ReportData) into the report before calling it.
func (s *Session) Attestation(n, e string, ev interfaces.EvidenceProvider) (*interfaces.Attestation, error) {
	switch s.phase {
	case Created, Requested:
		return nil, interfaces.ErrNoNonce
	case Attested:
		return nil, interfaces.ErrAlreadyAttested
	}

	evidence, err := ev.Evidence()
	if err != nil {
		return nil, fmt.Errorf("%w: could not serialize evidence: %w", interfaces.ErrEncoding, err)
	}

	att := &interfaces.Attestation{
		TeePubKey: interfaces.TeePubKey{
			Alg: "RSA",
			Kty: "RSA",
			N:   n,
			E:   e,
		},
		TeeEvidence: string(evidence),
	}
	s.phase = Attested
	return att, nil
}

// Secret decrypts a JWE envelope released by the broker. It depends only on
// the session key, not on the handshake phase.
func (s *Session) Secret(data []byte) ([]byte, error) {
	envelope, err := cryptoutils.ParseJweEnvelope(data)
	if err != nil {
		return nil, err
	}
	return cryptoutils.DecryptSecret(s.key, envelope)
}
