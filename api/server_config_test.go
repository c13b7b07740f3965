package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPServerConfigAddr(t *testing.T) {
	require.Equal(t, DefaultListenAddr, (&HTTPServerConfig{}).Addr())
	require.Equal(t, "0.0.0.0:9000", (&HTTPServerConfig{ListenAddr: "0.0.0.0:9000"}).Addr())
}
