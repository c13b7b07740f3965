/*
Package api holds the HTTP surfaces of the key broker client.

It is organized into two subpackages:

 1. kbsclient - the broker client: transports, endpoint calls and the Attester
    that runs the full handshake
 2. kbsstub - a development broker that issues challenges, checks report
    binding and releases secrets as JWE envelopes

HTTPServerConfig configures the stub broker's listener and shutdown behavior.

# Handshake

	POST /kbs/v0/auth    Request     -> Challenge
	POST /kbs/v0/attest  Attestation -> JWE envelope

The broker identifies the session by the cookie set on the auth response. A
client talking through a vsock or unix tunnel has its cookies replayed by the
forwarding bridge on the host side.
*/
package api
