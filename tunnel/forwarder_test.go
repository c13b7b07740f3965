package tunnel

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/stretchr/testify/require"
)

func TestHTTPForwarder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/whoami":
			c, err := r.Cookie("session")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(c.Value))
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(r.Method + " " + string(body)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPForwarder(srv.URL+"/", 0)
	require.NoError(t, err)
	require.NoError(t, f.Probe())

	post, err := NewRequest(MethodPost, "/echo", map[string]int{"a": 1})
	require.NoError(t, err)
	resp, err := f.Forward(post)
	require.NoError(t, err)
	require.Equal(t, uint16(200), resp.Status)
	require.Equal(t, `POST {"a":1}`, resp.Body)

	get, err := NewRequest(MethodGet, "/echo", nil)
	require.NoError(t, err)
	resp, err = f.Forward(get)
	require.NoError(t, err)
	require.Equal(t, "GET ", resp.Body)

	resp, err = f.Forward(&Request{Endpoint: "/missing", Method: MethodGet})
	require.NoError(t, err)
	require.Equal(t, uint16(404), resp.Status)

	// The session cookie set by one call is replayed on the next.
	_, err = f.Forward(&Request{Endpoint: "/login", Method: MethodPost})
	require.NoError(t, err)
	resp, err = f.Forward(&Request{Endpoint: "/whoami", Method: MethodGet})
	require.NoError(t, err)
	require.Equal(t, uint16(200), resp.Status)
	require.Equal(t, "s1", resp.Body)
}

func TestHTTPForwarderErrors(t *testing.T) {
	f, err := NewHTTPForwarder("http://127.0.0.1:1", 0)
	require.NoError(t, err)

	var remoteErr *RemoteCallError
	_, err = f.Forward(&Request{Endpoint: "/kbs/v0/auth", Method: MethodPost})
	require.ErrorAs(t, err, &remoteErr)
	require.ErrorIs(t, err, interfaces.ErrRemoteCall)
	require.Equal(t, "/kbs/v0/auth", remoteErr.Endpoint)

	_, err = f.Forward(&Request{Endpoint: "/", Method: "DELETE"})
	require.ErrorAs(t, err, &remoteErr)

	require.ErrorIs(t, f.Probe(), interfaces.ErrRemoteCall)
}
