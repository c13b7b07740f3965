// Package session implements the client side of the key broker attestation
// handshake.
//
// A Session moves through four phases:
//
//	Created -> Requested -> Challenged -> Attested
//
// Request, Challenge and Attestation each advance the session by one phase
// and fail with an error wrapping interfaces.ErrProtocol when called out of
// order. Secret is available in every phase since it only needs the session
// key.
//
// The report data binding is left to the caller: after Challenge, compute
// cryptoutils.ReportData(nonce, n, e) over the encoded public key, embed it in
// a fresh hardware report, hand the report to the evidence provider and only
// then call Attestation. api/kbsclient.Attester drives the whole sequence.
package session
