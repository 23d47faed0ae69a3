package sync

import (
	"time"

	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/planner"
)

// Config holds configuration for a sync run.
type Config struct {
	// Location is the repository to sync into
	Location storage.Location

	// Arch is the build architecture whose artifacts are synced
	Arch string

	// History caps how many builds of the index are inspected
	History int

	// DryRun performs every read and reports the plan without writing
	DryRun bool
}

// Status summarizes how a run ended.
type Status string

const (
	// StatusNoRojigBuilds means no inspected build carried a rojig image
	StatusNoRojigBuilds Status = "no rojig builds found"

	// StatusSynced means artifacts were uploaded and the marker was advanced
	StatusSynced Status = "synced"

	// StatusAlreadySynchronized means the repository needed no new artifacts
	// or the marker already named the latest build
	StatusAlreadySynchronized Status = "already synchronized"

	// StatusDryRun means the plan was computed but nothing was written
	StatusDryRun Status = "dry run"
)

// Result contains the results of a sync run.
type Result struct {
	Status Status

	// InventorySize is the number of distinct artifact names already stored
	InventorySize int

	// IndexedBuilds is the number of builds listed by the build stream
	IndexedBuilds int

	// InspectedBuilds is the number of build metadata documents fetched
	InspectedBuilds int

	// RojigBuilds is the number of inspected builds with a rojig image
	RojigBuilds int

	// Latest is the build id of the last retained build
	Latest string

	// PreviousBuild is the build the marker named before the run, if any
	PreviousBuild string

	// Transfers are the planned transfers, in order
	Transfers []planner.Transfer

	// Uploaded holds the names of uploaded artifacts
	Uploaded []string

	// BytesUploaded is the total bytes uploaded
	BytesUploaded int64

	// StateUpdated reports whether the marker was (or, in a dry run, would be) written
	StateUpdated bool

	// Duration is how long the run took
	Duration time.Duration
}
