package tunnel

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/mdlayher/vsock"
)

// Channel addresses take one of the forms
//
//	unix:/path/to/socket
//	vsock:<cid>:<port>
//	vsock:<port>        (Listen only, any context ID)
type channelAddr struct {
	network string
	path    string
	cid     uint32
	port    uint32
	anyCID  bool
}

func parseChannelAddr(addr string) (channelAddr, error) {
	network, rest, ok := strings.Cut(addr, ":")
	if !ok || rest == "" {
		return channelAddr{}, fmt.Errorf("invalid channel address %q", addr)
	}

	switch network {
	case "unix":
		return channelAddr{network: network, path: rest}, nil
	case "vsock":
		parts := strings.Split(rest, ":")
		if len(parts) > 2 {
			return channelAddr{}, fmt.Errorf("invalid vsock address %q", addr)
		}
		parsed := channelAddr{network: network, anyCID: len(parts) == 1}
		if !parsed.anyCID {
			cid, err := strconv.ParseUint(parts[0], 10, 32)
			if err != nil {
				return channelAddr{}, fmt.Errorf("invalid vsock context id in %q: %w", addr, err)
			}
			parsed.cid = uint32(cid)
		}
		port, err := strconv.ParseUint(parts[len(parts)-1], 10, 32)
		if err != nil {
			return channelAddr{}, fmt.Errorf("invalid vsock port in %q: %w", addr, err)
		}
		parsed.port = uint32(port)
		return parsed, nil
	default:
		return channelAddr{}, fmt.Errorf("unsupported channel network %q", network)
	}
}

// Dial connects to a tunnel channel.
func Dial(addr string) (net.Conn, error) {
	parsed, err := parseChannelAddr(addr)
	if err != nil {
		return nil, err
	}

	switch parsed.network {
	case "unix":
		return net.Dial("unix", parsed.path)
	default:
		if parsed.anyCID {
			return nil, fmt.Errorf("vsock address %q needs a context id to dial", addr)
		}
		conn, err := vsock.Dial(parsed.cid, parsed.port, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Listen opens a listener for tunnel channels.
func Listen(addr string) (net.Listener, error) {
	parsed, err := parseChannelAddr(addr)
	if err != nil {
		return nil, err
	}

	switch parsed.network {
	case "unix":
		return net.Listen("unix", parsed.path)
	default:
		var l *vsock.Listener
		if parsed.anyCID {
			l, err = vsock.Listen(parsed.port, nil)
		} else {
			l, err = vsock.ListenContextID(parsed.cid, parsed.port, nil)
		}
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}
