package tunnel

import (
	"bytes"
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/stretchr/testify/require"
)

func TestProxyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	require.NoError(t, p.WriteJSON(map[string]int{"a": 1}))
	require.NoError(t, p.WriteJSON([]string{"b"}))

	raw, err := p.ReadJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(raw))

	raw, err = p.ReadJSON()
	require.NoError(t, err)
	require.JSONEq(t, `["b"]`, string(raw))

	_, err = p.ReadJSON()
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestProxyRejectsInvalidJSON(t *testing.T) {
	p := New(bytes.NewBuffer(frame([]byte("not json"))))

	_, err := p.ReadJSON()
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestProxyWriteUnserializable(t *testing.T) {
	p := New(&bytes.Buffer{})
	err := p.WriteJSON(make(chan int))
	require.ErrorIs(t, err, interfaces.ErrEncoding)
}

func TestProxyConcurrentWritesDoNotInterleave(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	writer := New(client)
	reader := New(server)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = writer.WriteJSON(map[string]any{"writer": i, "padding": string(make([]byte, 512))})
		}(i)
	}

	seen := map[int]bool{}
	for i := 0; i < writers; i++ {
		raw, err := reader.ReadJSON()
		require.NoError(t, err)

		var doc struct {
			Writer int `json:"writer"`
		}
		require.NoError(t, json.Unmarshal(raw, &doc))
		seen[doc.Writer] = true
	}
	wg.Wait()
	require.Len(t, seen, writers)
}

func TestProxyCall(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		peer := New(server)
		raw, err := peer.ReadJSON()
		if err != nil {
			return
		}
		var req Request
		if json.Unmarshal(raw, &req) != nil {
			return
		}
		_ = peer.WriteJSON(&Response{Status: 200, Body: req.Endpoint})
	}()

	req, err := NewRequest(MethodPost, "/kbs/v0/auth", map[string]string{"tee": "snp"})
	require.NoError(t, err)

	resp, err := New(client).Call(req)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	require.Equal(t, "/kbs/v0/auth", resp.Body)
}

func TestProxyCallPeerGone(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		peer := New(server)
		_, _ = peer.ReadJSON()
		server.Close()
	}()

	req, err := NewRequest(MethodGet, "/", nil)
	require.NoError(t, err)

	_, err = New(client).Call(req)
	require.ErrorIs(t, err, ErrEndOfStream)
}
