package interfaces

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ResourcePath names a broker resource as repository/type/tag, for example
// "default/key/1".
type ResourcePath struct {
	Repository string
	Type       string
	Tag        string
}

var resourceSegment = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// ParseResourcePath parses and validates a repository/type/tag path. Segments
// may not be empty, start with a dot or contain a path separator.
func ParseResourcePath(s string) (ResourcePath, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 3 {
		return ResourcePath{}, fmt.Errorf("%w: %q is not repository/type/tag", ErrInvalidResourcePath, s)
	}
	for _, part := range parts {
		if !resourceSegment.MatchString(part) {
			return ResourcePath{}, fmt.Errorf("%w: invalid segment %q in %q", ErrInvalidResourcePath, part, s)
		}
	}
	return ResourcePath{Repository: parts[0], Type: parts[1], Tag: parts[2]}, nil
}

func (p ResourcePath) String() string {
	return p.Repository + "/" + p.Type + "/" + p.Tag
}

var (
	// ErrResourceNotFound is returned when a resource is not present in a store.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrBackendUnavailable is returned when a resource store is not accessible.
	ErrBackendUnavailable = errors.New("resource store unavailable")

	// ErrInvalidLocationURI is returned when a store location URI is malformed
	// or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid store location URI")

	ErrInvalidResourcePath = errors.New("invalid resource path")
)

// ResourceStore holds the resources a broker releases to attested workloads.
type ResourceStore interface {
	// Fetch returns the resource at path, or ErrResourceNotFound.
	Fetch(ctx context.Context, path ResourcePath) ([]byte, error)

	// Store writes data at path, replacing any previous content.
	Store(ctx context.Context, path ResourcePath, data []byte) error

	// Available checks if the store is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this store, credentials redacted.
	LocationURI() string
}
