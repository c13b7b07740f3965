package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// StoreFactory creates resource stores from location URIs.
type StoreFactory struct {
	log *slog.Logger
}

func NewStoreFactory(log *slog.Logger) *StoreFactory {
	if log == nil {
		log = slog.Default()
	}
	return &StoreFactory{log: log}
}

// StoreFor creates a store from a location URI. See the package
// documentation for the supported schemes.
func (sf *StoreFactory) StoreFor(locationURI string) (interfaces.ResourceStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "vault":
		return sf.createVaultStore(u)
	case "ipfs":
		return sf.createIPFSStore(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiStore creates a MultiStore from every URI that yields a valid
// store. URIs that fail are logged and skipped.
func (sf *StoreFactory) CreateMultiStore(locationURIs []string) (interfaces.ResourceStore, error) {
	stores := make([]interfaces.ResourceStore, 0, len(locationURIs))
	for _, uri := range locationURIs {
		store, err := sf.StoreFor(uri)
		if err != nil {
			sf.log.Warn("Failed to create resource store", "err", err, "locationURI", redact(uri))
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("no valid resource stores created")
	}
	if len(stores) == 1 {
		return stores[0], nil
	}
	return NewMultiStore(stores, sf.log), nil
}

// file:///absolute/path or file://./relative/path
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.ResourceStore, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidLocationURI, u.String())
	}
	return NewFileStore(path, sf.log)
}

// s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-west-2&endpoint=host:port&path-style=true
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.ResourceStore, error) {
	query := u.Query()
	cfg := S3Config{
		Bucket:    u.Host,
		Prefix:    u.Path,
		Region:    query.Get("region"),
		Endpoint:  query.Get("endpoint"),
		PathStyle: query.Get("path-style") == "true",
	}
	if u.User != nil {
		cfg.AccessKey = u.User.Username()
		cfg.SecretKey, _ = u.User.Password()
	}
	return NewS3Store(cfg, sf.log)
}

// vault://[TOKEN@]host:port/mount/prefix?tls=false
func (sf *StoreFactory) createVaultStore(u *url.URL) (interfaces.ResourceStore, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing Vault host", interfaces.ErrInvalidLocationURI)
	}

	scheme := "https"
	if u.Query().Get("tls") == "false" {
		scheme = "http"
	}

	mount, dataPath, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")

	var token string
	if u.User != nil {
		token = u.User.Username()
	}
	return NewVaultStore(fmt.Sprintf("%s://%s", scheme, u.Host), mount, dataPath, token, sf.log)
}

// ipfs://host:port/root?timeout=30s
func (sf *StoreFactory) createIPFSStore(u *url.URL) (interfaces.ResourceStore, error) {
	port := u.Port()
	if port == "" {
		port = "5001"
	}

	timeout := 30 * time.Second
	if t := u.Query().Get("timeout"); t != "" {
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, t)
		}
		timeout = parsed
	}
	return NewIPFSStore(u.Hostname(), port, u.Path, timeout, sf.log)
}

func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	u.User = url.User("***")
	return u.String()
}
