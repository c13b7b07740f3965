package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/stretchr/testify/require"
)

// fakeIPFS serves the version and MFS read/write commands of the IPFS RPC API.
type fakeIPFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (f *fakeIPFS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/v0/version":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"Version":"0.29.0","Commit":""}`)
	case "/api/v0/files/read":
		data, ok := f.files[r.URL.Query().Get("arg")]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"Message":"file does not exist","Code":0,"Type":"error"}`)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(data)
	case "/api/v0/files/write":
		data, err := firstFilePart(r)
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, err.Error())
			return
		}
		f.files[r.URL.Query().Get("arg")] = data
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func firstFilePart(r *http.Request) ([]byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.Header.Get("Content-Type") == "application/x-directory" {
			continue
		}
		return io.ReadAll(part)
	}
}

func TestIPFSStore(t *testing.T) {
	fake := &fakeIPFS{files: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	host, port, _ := strings.Cut(strings.TrimPrefix(srv.URL, "http://"), ":")
	store, err := NewIPFSStore(host, port, "kbs/", 5*time.Second, nil)
	require.NoError(t, err)
	ctx := context.Background()
	path := interfaces.ResourcePath{Repository: "default", Type: "key", Tag: "1"}

	require.True(t, store.Available(ctx))
	require.Equal(t, "ipfs://"+host+":"+port+"/kbs", store.LocationURI())

	_, err = store.Fetch(ctx, path)
	require.ErrorIs(t, err, interfaces.ErrResourceNotFound)

	require.NoError(t, store.Store(ctx, path, []byte("top secret")))
	require.Equal(t, []byte("top secret"), fake.files["/kbs/default/key/1"])

	data, err := store.Fetch(ctx, path)
	require.NoError(t, err)
	require.Equal(t, []byte("top secret"), data)
}

func TestIPFSStoreUnreachable(t *testing.T) {
	store, err := NewIPFSStore("127.0.0.1", "1", "/", time.Second, nil)
	require.NoError(t, err)
	require.False(t, store.Available(context.Background()))

	_, err = store.Fetch(context.Background(), interfaces.ResourcePath{Repository: "a", Type: "b", Tag: "c"})
	require.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
}

func TestIPFSStoreRequiresHost(t *testing.T) {
	_, err := NewIPFSStore("", "5001", "/", 0, nil)
	require.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
