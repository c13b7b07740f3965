package interfaces

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResourcePath(t *testing.T) {
	p, err := ParseResourcePath("default/key/1")
	require.NoError(t, err)
	require.Equal(t, ResourcePath{Repository: "default", Type: "key", Tag: "1"}, p)
	require.Equal(t, "default/key/1", p.String())

	p, err = ParseResourcePath("/my-repo/tls_cert/v1.2/")
	require.NoError(t, err)
	require.Equal(t, "my-repo/tls_cert/v1.2", p.String())

	for _, invalid := range []string{"", "default/key", "a/b/c/d", "default//1", "../key/1", "default/./1", "default/key/a b"} {
		_, err := ParseResourcePath(invalid)
		require.ErrorIs(t, err, ErrInvalidResourcePath, invalid)
	}
}
