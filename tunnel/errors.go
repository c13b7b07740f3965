package tunnel

import (
	"errors"
	"fmt"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// ErrEndOfStream is returned by ReadJSON when the peer closed the channel
// cleanly between frames. It is a normal terminal signal, not a fault.
var ErrEndOfStream = errors.New("end of stream")

// TransportError is a channel I/O fault or a malformed frame. It is fatal to
// the tunnel.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %s", interfaces.ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{interfaces.ErrTransport, e.Err}
}

// RemoteCallError is returned by a Forwarder that could not complete the call
// to the broker. The bridge turns it into a StatusUndelivered response.
type RemoteCallError struct {
	Endpoint string
	Err      error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %s: %s", interfaces.ErrRemoteCall, e.Endpoint, e.Err)
}

func (e *RemoteCallError) Unwrap() []error {
	return []error{interfaces.ErrRemoteCall, e.Err}
}
