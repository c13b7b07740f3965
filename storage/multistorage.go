package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// MultiStore combines several stores. Fetch returns the first hit in order,
// Store writes to every available store and succeeds if one write did.
type MultiStore struct {
	stores []interfaces.ResourceStore
	log    *slog.Logger
}

var _ interfaces.ResourceStore = (*MultiStore)(nil)

func NewMultiStore(stores []interfaces.ResourceStore, log *slog.Logger) *MultiStore {
	if log == nil {
		log = slog.Default()
	}
	return &MultiStore{stores: stores, log: log}
}

func (m *MultiStore) Fetch(ctx context.Context, path interfaces.ResourcePath) ([]byte, error) {
	var errs []error
	notFound := 0

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", "store", store.Name(), "resource", path.String())
			continue
		}

		data, err := store.Fetch(ctx, path)
		if err == nil {
			m.log.Debug("Fetched resource", "store", store.Name(), "resource", path.String())
			return data, nil
		}
		if errors.Is(err, interfaces.ErrResourceNotFound) {
			notFound++
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}

	if notFound > 0 && notFound == len(errs) {
		return nil, interfaces.ErrResourceNotFound
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no store available for %s", interfaces.ErrBackendUnavailable, path)
	}
	return nil, fmt.Errorf("all stores failed to fetch %s: %w", path, errors.Join(errs...))
}

func (m *MultiStore) Store(ctx context.Context, path interfaces.ResourcePath, data []byte) error {
	var errs []error
	stored := false

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", "store", store.Name())
			continue
		}
		if err := store.Store(ctx, path, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			m.log.Warn("Failed to store resource", "store", store.Name(), "resource", path.String(), "err", err)
			continue
		}
		stored = true
	}

	if !stored {
		if len(errs) == 0 {
			return fmt.Errorf("%w: no store available for %s", interfaces.ErrBackendUnavailable, path)
		}
		return fmt.Errorf("all stores failed to store %s: %w", path, errors.Join(errs...))
	}
	return nil
}

// Available reports whether any store is available.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, store := range m.stores {
		if store.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStore) Name() string {
	return "multi-store"
}

func (m *MultiStore) LocationURI() string {
	locations := make([]string, 0, len(m.stores))
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
