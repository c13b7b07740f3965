package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// IPFSStore keeps resources in the mutable file system of an IPFS node,
// under root/repository/type/tag.
type IPFSStore struct {
	shell       *shell.Shell
	apiAddr     string
	root        string
	log         *slog.Logger
	locationURI string
}

func NewIPFSStore(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSStore, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: missing IPFS host", interfaces.ErrInvalidLocationURI)
	}
	if log == nil {
		log = slog.Default()
	}

	apiAddr := fmt.Sprintf("%s:%s", host, port)
	sh := shell.NewShell(apiAddr)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}

	root = "/" + strings.Trim(root, "/")
	return &IPFSStore{
		shell:       sh,
		apiAddr:     apiAddr,
		root:        root,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s", apiAddr, root),
	}, nil
}

func (b *IPFSStore) Fetch(ctx context.Context, p interfaces.ResourcePath) ([]byte, error) {
	filePath := b.filePath(p)

	reader, err := b.shell.FilesRead(ctx, filePath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			b.log.Debug("Resource not found in IPFS", slog.String("path", filePath))
			return nil, interfaces.ErrResourceNotFound
		}
		b.log.Error("Failed to read from IPFS", slog.String("path", filePath), "err", err)
		return nil, fmt.Errorf("%w: failed to read from IPFS: %w", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched resource from IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(data)))
	return data, nil
}

func (b *IPFSStore) Store(ctx context.Context, p interfaces.ResourcePath, data []byte) error {
	filePath := b.filePath(p)

	err := b.shell.FilesWrite(ctx, filePath, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write to IPFS: %w", err)
	}

	b.log.Debug("Stored resource in IPFS", slog.String("path", filePath))
	return nil
}

func (b *IPFSStore) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

func (b *IPFSStore) Name() string {
	return fmt.Sprintf("ipfs-%s", b.apiAddr)
}

func (b *IPFSStore) LocationURI() string {
	return b.locationURI
}

func (b *IPFSStore) filePath(p interfaces.ResourcePath) string {
	return path.Join(b.root, p.Repository, p.Type, p.Tag)
}
