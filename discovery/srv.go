package discovery

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultServer is queried when no resolver configuration is readable.
const DefaultServer = "127.0.0.53:53"

var ErrNoRecords = errors.New("no SRV records")

// Resolver looks up broker endpoints published as DNS SRV records.
type Resolver struct {
	// Server is the host:port of the DNS server. Empty means the first
	// nameserver of /etc/resolv.conf, or DefaultServer.
	Server  string
	Timeout time.Duration
}

func (r *Resolver) server() string {
	if r.Server != "" {
		return r.Server
	}
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		return net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return DefaultServer
}

// LookupSRV returns the SRV records of name ordered by priority, then by
// descending weight. Targets keep no trailing dot.
func (r *Resolver) LookupSRV(name string) ([]*dns.SRV, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	m.RecursionDesired = true

	c := &dns.Client{Timeout: r.Timeout}
	in, _, err := c.Exchange(m, r.server())
	if err != nil {
		return nil, fmt.Errorf("SRV lookup of %s failed: %w", name, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("SRV lookup of %s failed: %s", name, dns.RcodeToString[in.Rcode])
	}

	records := make([]*dns.SRV, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if srv, ok := answer.(*dns.SRV); ok {
			srv.Target = strings.TrimSuffix(srv.Target, ".")
			records = append(records, srv)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRecords, name)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})
	return records, nil
}

// BrokerURL resolves srv+http:// and srv+https:// broker URLs to the best
// SRV target, for example srv+https://_kbs._tcp.example.com/prefix becomes
// https://kbs1.example.com:8443/prefix. Other URLs are returned unchanged.
func (r *Resolver) BrokerURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid broker url %q: %w", rawURL, err)
	}

	scheme, ok := strings.CutPrefix(u.Scheme, "srv+")
	if !ok {
		return rawURL, nil
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported broker url scheme %q", u.Scheme)
	}

	records, err := r.LookupSRV(u.Hostname())
	if err != nil {
		return "", err
	}

	best := records[0]
	u.Scheme = scheme
	u.Host = net.JoinHostPort(best.Target, strconv.Itoa(int(best.Port)))
	return u.String(), nil
}
