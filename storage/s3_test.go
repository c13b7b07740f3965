package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style object requests for a single bucket.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/"+f.bucket || r.URL.Path == "/"+f.bucket+"/" {
		w.WriteHeader(http.StatusOK)
		return
	}

	key := r.URL.Path[len("/"+f.bucket+"/"):]
	switch r.Method {
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Write(data)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T) (*S3Store, *fakeS3) {
	fake := &fakeS3{bucket: "kbs", objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(S3Config{
		Bucket:    "kbs",
		Prefix:    "/resources/",
		Endpoint:  srv.URL,
		AccessKey: "AK",
		SecretKey: "SK",
		PathStyle: true,
	}, nil)
	require.NoError(t, err)
	return store, fake
}

func TestS3Store(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := context.Background()
	path := interfaces.ResourcePath{Repository: "default", Type: "key", Tag: "1"}

	require.True(t, store.Available(ctx))
	require.Equal(t, "s3-kbs", store.Name())
	require.NotContains(t, store.LocationURI(), "SK")

	_, err := store.Fetch(ctx, path)
	require.ErrorIs(t, err, interfaces.ErrResourceNotFound)

	require.NoError(t, store.Store(ctx, path, []byte("top secret")))
	require.Equal(t, []byte("top secret"), fake.objects["resources/default/key/1"])

	data, err := store.Fetch(ctx, path)
	require.NoError(t, err)
	require.Equal(t, []byte("top secret"), data)
}

func TestS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(S3Config{}, nil)
	require.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
