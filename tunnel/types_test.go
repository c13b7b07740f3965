package tunnel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestJSON(t *testing.T) {
	req, err := NewRequest(MethodPost, "/kbs/v0/auth", map[string]string{"version": "0.1.0"})
	require.NoError(t, err)
	require.True(t, req.HasBody())

	doc, err := json.Marshal(req)
	require.NoError(t, err)
	require.JSONEq(t, `{"endpoint":"/kbs/v0/auth","method":"POST","body":{"version":"0.1.0"}}`, string(doc))

	get, err := NewRequest(MethodGet, "/", nil)
	require.NoError(t, err)
	require.False(t, get.HasBody())

	doc, err = json.Marshal(get)
	require.NoError(t, err)
	require.JSONEq(t, `{"endpoint":"/","method":"GET","body":null}`, string(doc))

	require.False(t, (&Request{}).HasBody())
}

func TestResponse(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"status":999,"body":"connection refused"}`), &resp))
	require.True(t, resp.Undelivered())
	require.False(t, resp.IsSuccess())

	require.True(t, (&Response{Status: 204}).IsSuccess())
	require.False(t, (&Response{Status: 401}).IsSuccess())
}

func TestMethodValid(t *testing.T) {
	require.True(t, MethodGet.Valid())
	require.True(t, MethodPost.Valid())
	require.False(t, Method("DELETE").Valid())
	require.False(t, Method("").Valid())
}
