package tunnel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/atomic"
)

// Bridge runs on the side of the tunnel with network access. It relays every
// request read from the tunnel to the Forwarder and writes back the result.
type Bridge struct {
	proxy     *Proxy
	forwarder Forwarder
	log       *slog.Logger

	forwarded atomic.Uint64
	failed    atomic.Uint64
}

func NewBridge(proxy *Proxy, forwarder Forwarder, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		proxy:     proxy,
		forwarder: forwarder,
		log:       log,
	}
}

// Run serves requests until the peer disconnects, in which case it returns
// nil. Failed broker calls are answered with StatusUndelivered and do not
// stop the loop; channel faults do.
func (b *Bridge) Run() error {
	for {
		raw, err := b.proxy.ReadJSON()
		if errors.Is(err, ErrEndOfStream) {
			b.log.Info("Tunnel client disconnected", "forwarded", b.forwarded.Load(), "failed", b.failed.Load())
			return nil
		}
		if err != nil {
			b.log.Error("Reading from tunnel failed", "err", err)
			return err
		}

		resp := b.handle(raw)
		if err := b.proxy.WriteJSON(resp); err != nil {
			b.log.Error("Writing to tunnel failed", "err", err)
			return err
		}
	}
}

func (b *Bridge) handle(raw json.RawMessage) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		b.failed.Inc()
		b.log.Error("Invalid tunnel request", "err", err)
		return &Response{Status: StatusUndelivered, Body: fmt.Sprintf("invalid request: %s", err)}
	}

	b.log.Debug("Forwarding request", "method", req.Method, "endpoint", req.Endpoint)
	resp, err := b.forwarder.Forward(&req)
	if err != nil {
		b.failed.Inc()
		b.log.Error("Forwarding request failed", "method", req.Method, "endpoint", req.Endpoint, "err", err)
		return &Response{Status: StatusUndelivered, Body: err.Error()}
	}

	b.forwarded.Inc()
	b.log.Debug("Forwarded request", "endpoint", req.Endpoint, "status", resp.Status)
	return resp
}

// Stats returns the number of delivered and failed calls.
func (b *Bridge) Stats() (forwarded, failed uint64) {
	return b.forwarded.Load(), b.failed.Load()
}
