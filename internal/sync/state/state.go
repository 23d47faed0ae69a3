// Package state persists the id of the last synchronized build.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
)

// FileName is the state object's name under the repository prefix.
const FileName = "cosa-rojig-repoize-state.json"

// SyncState records the last build whose artifacts were fully synchronized.
type SyncState struct {
	Build string `json:"build"`
}

// NeedsUpdate reports whether the marker must be rewritten to record latest.
func NeedsUpdate(current *SyncState, latest string) bool {
	return current == nil || current.Build != latest
}

// Store reads and writes the state marker of one repository location.
// Writes overwrite unconditionally; concurrent runs against the same
// location are not supported.
type Store struct {
	store    storage.Store
	location storage.Location
}

// NewStore creates a Store for loc.
func NewStore(store storage.Store, loc storage.Location) *Store {
	return &Store{store: store, location: loc}
}

// Key returns the object key of the marker.
func (s *Store) Key() string {
	return s.location.Key(FileName)
}

// Read returns the persisted state, or nil when none has been written yet.
func (s *Store) Read(ctx context.Context) (*SyncState, error) {
	data, err := s.store.Get(ctx, s.Key())
	if err != nil {
		if repoerrors.IsObjectNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var st SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, repoerrors.NewDecodeError("state", s.location.String()+"/"+FileName,
			fmt.Errorf("%w: %w", repoerrors.ErrSchemaMismatch, err))
	}
	return &st, nil
}

// Write replaces the persisted state.
func (s *Store) Write(ctx context.Context, st SyncState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return s.store.Put(ctx, s.Key(), bytes.NewReader(data), int64(len(data)), &storage.PutOptions{
		ContentType: "application/json",
	})
}
