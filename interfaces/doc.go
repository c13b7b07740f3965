// Package interfaces defines the documents exchanged with the key broker and
// the capabilities the rest of the module is written against.
//
// # Handshake Documents
//
// The attestation handshake uses four JSON documents with wire-exact field
// names:
//
//	Request     {"version", "tee", "extra-params"}              client -> broker
//	Challenge   {"nonce", "extra-params"}                       broker -> client
//	Attestation {"tee-pubkey": {alg, kty, n, e}, "tee-evidence"} client -> broker
//	JweEnvelope {"protected", "encrypted_key", "iv", "ciphertext", "tag"}
//
// The "tee-evidence" value is the serialized evidence document as a string,
// not a nested object.
//
// # Evidence Providers
//
// EvidenceProvider is implemented once per hardware generation (see package
// evidence). It supplies the version, the TEE tag, the vendor extra
// parameters and the evidence document built from the latest raw report.
//
// # Errors
//
// All errors produced by the module wrap one of ErrProtocol, ErrEncoding,
// ErrTransport, ErrDecryption or ErrRemoteCall.
package interfaces
