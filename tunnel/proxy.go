package tunnel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// Proxy exchanges JSON documents over a duplex byte channel. Reads are not
// synchronized; a Proxy belongs to one flow of control. Writes are serialized
// so frames never interleave.
type Proxy struct {
	conn io.ReadWriter
	wmu  sync.Mutex
}

func New(conn io.ReadWriter) *Proxy {
	return &Proxy{conn: conn}
}

// ReadJSON blocks until one complete frame is available and returns its
// payload. It returns ErrEndOfStream on a clean shutdown of the peer.
func (p *Proxy) ReadJSON() (json.RawMessage, error) {
	payload, err := readFrame(p.conn)
	if err != nil {
		return nil, err
	}
	if !json.Valid(payload) {
		return nil, &TransportError{Op: "reading frame payload", Err: errors.New("payload is not valid JSON")}
	}
	return json.RawMessage(payload), nil
}

// WriteJSON serializes v and writes it as one frame.
func (p *Proxy) WriteJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: could not serialize frame: %w", interfaces.ErrEncoding, err)
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	return writeFrame(p.conn, payload)
}

// Call sends req and waits for the matching response. Only one call may be
// outstanding on a tunnel.
func (p *Proxy) Call(req *Request) (*Response, error) {
	if err := p.WriteJSON(req); err != nil {
		return nil, err
	}

	raw, err := p.ReadJSON()
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &TransportError{Op: "decoding response", Err: err}
	}
	return &resp, nil
}

// Close closes the underlying channel if it can be closed.
func (p *Proxy) Close() error {
	if c, ok := p.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
