// Package tunnel lets a network isolated TEE reach the key broker through a
// bridge process over a raw duplex byte channel (a Unix domain socket, a
// vsock connection or any io.ReadWriter).
//
// # Framing
//
// Each JSON document is sent as one frame:
//
//	[payload length (4 bytes, big-endian)][payload]
//
// Zero-length frames and frames above MaxFrameSize are malformed. A peer
// closing the channel between frames yields ErrEndOfStream; a truncated or
// malformed frame is a *TransportError and ends the tunnel.
//
// # Protocol
//
// The isolated side sends a Request
//
//	{"endpoint": "/kbs/v0/auth", "method": "POST", "body": {...}}
//
// and waits for the Response
//
//	{"status": 200, "body": "..."}
//
// before sending the next one. The Bridge on the networked side forwards each
// request and, when the broker cannot be reached, answers with status
// StatusUndelivered (999) and the error text instead of failing, so the
// tunnel stays usable.
package tunnel
