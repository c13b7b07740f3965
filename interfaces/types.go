package interfaces

import "encoding/json"

// Tee is the TEE kind tag carried in request documents.
type Tee string

const (
	TeeSNP Tee = "snp"
	TeeTDX Tee = "tdx"
)

// String returns the tag as sent on the wire.
func (t Tee) String() string {
	return string(t)
}

// Request opens an attestation session with the broker (POST /kbs/v0/auth).
type Request struct {
	Version     string `json:"version"`
	Tee         Tee    `json:"tee"`
	ExtraParams string `json:"extra-params"`
}

// Challenge is the broker's reply to a Request. The nonce is opaque and is
// bound verbatim into the hardware report data.
type Challenge struct {
	Nonce       string `json:"nonce"`
	ExtraParams string `json:"extra-params"`
}

// TeePubKey is the RSA public key the broker wraps the released secret to.
// N and E are unpadded base64url encodings of the unsigned big-endian values.
type TeePubKey struct {
	Alg string `json:"alg"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Attestation carries the session key and the hardware evidence
// (POST /kbs/v0/attest). TeeEvidence is serialized JSON text, not a nested
// object.
type Attestation struct {
	TeePubKey   TeePubKey `json:"tee-pubkey"`
	TeeEvidence string    `json:"tee-evidence"`
}

// JweEnvelope is the flattened JWE the broker releases the secret in. Every
// field is a base64url string.
type JweEnvelope struct {
	Protected    string `json:"protected"`
	EncryptedKey string `json:"encrypted_key"`
	IV           string `json:"iv"`
	Ciphertext   string `json:"ciphertext"`
	Tag          string `json:"tag"`
}

// EvidenceProvider produces the hardware specific parts of the handshake.
// There is one implementation per supported hardware generation.
type EvidenceProvider interface {
	// Version is the protocol version sent in the request document.
	Version() string

	// Tee is the TEE kind tag.
	Tee() Tee

	// ExtraParams are vendor specific request parameters.
	ExtraParams() json.RawMessage

	// UpdateReport stores the raw hardware report, replacing any earlier one.
	// The content is not validated.
	UpdateReport(report []byte)

	// Evidence returns the evidence document embedded in the attestation.
	Evidence() (json.RawMessage, error)
}
