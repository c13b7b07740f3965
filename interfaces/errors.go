package interfaces

import (
	"errors"
	"fmt"
)

// Error taxonomy. Concrete errors wrap one of these so callers can branch
// with errors.Is.
var (
	// ErrProtocol is returned when handshake operations are called out of order.
	ErrProtocol = errors.New("protocol error")

	// ErrEncoding is returned when a value cannot be serialized.
	ErrEncoding = errors.New("encoding error")

	// ErrTransport is a channel I/O fault or a malformed frame.
	ErrTransport = errors.New("transport error")

	// ErrDecryption is a JWE parse, key unwrap or authentication failure.
	ErrDecryption = errors.New("decryption error")

	// ErrRemoteCall is returned when the bridge could not reach the broker.
	ErrRemoteCall = errors.New("remote call error")
)

var (
	ErrAlreadyRequested  = fmt.Errorf("%w: session already requested", ErrProtocol)
	ErrNotRequested      = fmt.Errorf("%w: challenge received before request", ErrProtocol)
	ErrAlreadyChallenged = fmt.Errorf("%w: session already challenged", ErrProtocol)
	ErrNoNonce           = fmt.Errorf("%w: no nonce, challenge was not processed", ErrProtocol)
	ErrAlreadyAttested   = fmt.Errorf("%w: session already attested", ErrProtocol)
)
