package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/executor"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/inventory"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/manifest"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/planner"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/state"
)

// Source is a build stream.
type Source interface {
	manifest.Source
	executor.Source
}

// Manager runs the phases of a sync:
// 1. Inventory: list what the repository already holds
// 2. Manifest: walk the build stream for rojig builds
// 3. Planning: diff the two and read the sync marker
// 4. Execution: upload missing artifacts, then advance the marker
type Manager struct {
	store     storage.Store
	inventory *inventory.Reader
	walker    *manifest.Walker
	executor  *executor.Executor
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager syncing from source into store.
func NewManager(source Source, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.inventory = inventory.NewReader(store, m.logger)
	m.walker = manifest.NewWalker(source, m.logger)
	m.executor = executor.New(source, store, m.logger)
	return m
}

// Sync runs one sync. Any failure aborts the run; artifacts uploaded before
// the failure stay in place and the marker is left untouched.
func (m *Manager) Sync(ctx context.Context, config *Config) (*Result, error) {
	startTime := time.Now()
	result := &Result{}
	log := m.logger.With("location", config.Location.String(), "arch", config.Arch)

	inv, err := m.inventory.Read(ctx, config.Location)
	if err != nil {
		return nil, err
	}
	result.InventorySize = inv.Len()
	log.Info("current rpms", "count", inv.Len())

	walk, err := m.walker.Walk(ctx, config.Arch, config.History)
	if err != nil {
		return nil, err
	}
	result.IndexedBuilds = walk.Indexed
	result.InspectedBuilds = len(walk.Inspected)
	result.RojigBuilds = len(walk.Retained)

	if len(walk.Retained) == 0 {
		log.Info("no rojig builds found", "indexed", walk.Indexed, "inspected", len(walk.Inspected))
		result.Status = StatusNoRojigBuilds
		result.Duration = time.Since(startTime)
		return result, nil
	}

	plan := planner.New(config.Location).Plan(walk.Retained, inv)
	result.Latest = plan.Latest
	result.Transfers = plan.Transfers
	log.Info("total rojig builds", "count", len(walk.Retained), "latest", plan.Latest)

	markers := state.NewStore(m.store, config.Location)
	current, err := markers.Read(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		result.PreviousBuild = current.Build
	}
	needsUpdate := state.NeedsUpdate(current, plan.Latest)
	log.Info("current sync state", "key", markers.Key(), "build", result.PreviousBuild)
	log.Info("new rojig builds", "count", len(plan.Transfers), "bytes", plan.TotalBytes())

	if config.DryRun {
		for _, t := range plan.Transfers {
			log.Info("would upload", "path", t.Name, "build", t.BuildID, "key", t.Key, "size", t.Size)
		}
		if needsUpdate {
			log.Info("would update sync state", "build", plan.Latest)
		}
		result.StateUpdated = needsUpdate
		result.Status = StatusDryRun
		result.Duration = time.Since(startTime)
		return result, nil
	}

	executed, err := m.executor.Execute(ctx, config.Arch, plan.Transfers)
	if executed != nil {
		result.Uploaded = executed.Uploaded
		result.BytesUploaded = executed.BytesUploaded
	}
	if err != nil {
		return result, err
	}

	if needsUpdate {
		if err := markers.Write(ctx, state.SyncState{Build: plan.Latest}); err != nil {
			return result, err
		}
		result.StateUpdated = true
	}

	result.Status = StatusAlreadySynchronized
	if result.StateUpdated && len(result.Uploaded) > 0 {
		result.Status = StatusSynced
	}

	if result.Status == StatusSynced {
		log.Info("completed sync", "build", plan.Latest, "uploaded", len(result.Uploaded))
	} else {
		log.Info("already synchronized",
			"build", plan.Latest,
			"uploaded", len(result.Uploaded),
			"state_updated", result.StateUpdated)
	}

	result.Duration = time.Since(startTime)
	return result, nil
}
