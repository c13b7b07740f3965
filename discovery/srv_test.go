package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func startDNSServer(t *testing.T, records map[string][]dns.RR) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(req)
			answers, ok := records[req.Question[0].Name]
			if !ok {
				m.Rcode = dns.RcodeNameError
			}
			m.Answer = answers
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	<-started
	return pc.LocalAddr().String()
}

func srv(t *testing.T, record string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(record)
	require.NoError(t, err)
	return rr
}

func TestBrokerURL(t *testing.T) {
	addr := startDNSServer(t, map[string][]dns.RR{
		"_kbs._tcp.example.com.": {
			srv(t, "_kbs._tcp.example.com. 60 IN SRV 20 100 8000 backup.example.com."),
			srv(t, "_kbs._tcp.example.com. 60 IN SRV 10 10 8080 light.example.com."),
			srv(t, "_kbs._tcp.example.com. 60 IN SRV 10 50 8443 kbs1.example.com."),
		},
		"_empty._tcp.example.com.": {},
	})
	r := &Resolver{Server: addr, Timeout: 2 * time.Second}

	records, err := r.LookupSRV("_kbs._tcp.example.com")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "kbs1.example.com", records[0].Target)
	require.Equal(t, "light.example.com", records[1].Target)
	require.Equal(t, "backup.example.com", records[2].Target)

	resolved, err := r.BrokerURL("srv+https://_kbs._tcp.example.com/prefix")
	require.NoError(t, err)
	require.Equal(t, "https://kbs1.example.com:8443/prefix", resolved)

	resolved, err = r.BrokerURL("http://127.0.0.1:8000")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8000", resolved)

	_, err = r.BrokerURL("srv+http://_empty._tcp.example.com")
	require.ErrorIs(t, err, ErrNoRecords)

	_, err = r.BrokerURL("srv+http://_missing._tcp.example.com")
	require.Error(t, err)

	_, err = r.BrokerURL("srv+ftp://_kbs._tcp.example.com")
	require.Error(t, err)
}
