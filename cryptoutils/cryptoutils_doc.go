// Package cryptoutils provides the key handling and attestation primitives of
// the broker handshake.
//
// # Key Encoding
//
// RSA modulus and exponent travel as unpadded base64url of their minimal
// big-endian bytes. Zero encodes as "AA".
//
//	EncodeKey(big.NewInt(65537)) // "AQAB"
//
// # Report Data
//
// Evidence binds a session by carrying
//
//	SHA-512(nonce || n || e)
//
// in its report data, where nonce is the broker's challenge and n, e are the
// encoded key strings exactly as sent in the attestation.
//
// # Secrets
//
// The broker releases its secret as a compact-serialisable JWE envelope
// encrypted to the attested public key. DecryptSecret accepts RSA-OAEP and
// RSA-OAEP-256 key encryption with any content encryption the header names.
// Every failure is reported as interfaces.ErrDecryption.
//
// # Attestation Providers
//
//   - SNPAttestationProvider reads a report from /dev/sev-guest
//   - DCAPAttestationProvider produces a TDX quote through configfs-tsm or /dev/tdx_guest
//   - RemoteAttestationProvider asks an HTTP quote service
//   - DummySNPAttestationProvider builds an unsigned report for development
package cryptoutils
