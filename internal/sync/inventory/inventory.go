// Package inventory lists the artifacts a repository location already holds.
package inventory

import (
	"context"
	"log/slog"
	"strings"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
)

// Inventory is the set of basenames present under a repository prefix.
type Inventory map[string]struct{}

// Has reports whether name is present.
func (i Inventory) Has(name string) bool {
	_, ok := i[name]
	return ok
}

// Len returns the number of distinct basenames.
func (i Inventory) Len() int {
	return len(i)
}

// Basename returns the part of key after the last slash.
func Basename(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// Reader builds inventories from a store.
type Reader struct {
	store  storage.Store
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger discards output.
func NewReader(store storage.Store, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{store: store, logger: logger}
}

// Read lists every object under loc and reduces the keys to basenames.
// An entry without a key fails the whole read.
func (r *Reader) Read(ctx context.Context, loc storage.Location) (Inventory, error) {
	objects, err := r.store.List(ctx, loc.ListPrefix())
	if err != nil {
		return nil, err
	}

	inv := make(Inventory, len(objects))
	for _, obj := range objects {
		if obj.Key == "" {
			return nil, repoerrors.NewStorageError("inventory", loc.Bucket, "", repoerrors.ErrMissingKey).
				WithMessage(loc.String())
		}
		inv[Basename(obj.Key)] = struct{}{}
	}

	r.logger.Debug("built inventory", "location", loc.String(), "objects", len(objects), "names", inv.Len())
	return inv, nil
}
