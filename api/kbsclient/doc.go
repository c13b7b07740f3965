// Package kbsclient talks to the key broker, either directly over HTTP or
// through a tunnel bridge, and drives the attestation handshake.
//
// # Transports
//
// HTTPTransport sends calls straight to the broker and keeps cookies between
// them. TunnelTransport frames each call onto a tunnel.Proxy; a bridge answer
// with status 999 surfaces as an error wrapping interfaces.ErrRemoteCall.
//
// # Handshake
//
//	att := &kbsclient.Attester{
//	    Client:   kbsclient.NewClient(transport, log),
//	    Evidence: evidence.NewSnpEvidence(evidence.Milan),
//	    Hardware: &cryptoutils.SNPAttestationProvider{},
//	    Key:      key,
//	}
//	secret, err := att.Run()
//
// Run posts the request to /kbs/v0/auth, binds the returned nonce and the
// session key into the hardware report data, posts the attestation to
// /kbs/v0/attest and decrypts the JWE envelope the broker returns.
package kbsclient
