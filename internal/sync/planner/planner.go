// Package planner decides which rojig artifacts a repository is missing.
package planner

import (
	"github.com/cgwalters/cosa-rojig-repoize/internal/cosa"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/inventory"
)

// Transfer is one artifact to copy from the build stream into storage.
type Transfer struct {
	// BuildID is the build the artifact belongs to
	BuildID string

	// Name is the artifact file name, also its basename in the repository
	Name string

	// Key is the destination object key
	Key string

	// Size is the declared artifact size in bytes
	Size uint64

	// SHA256 is the declared lowercase hex digest
	SHA256 string
}

// Plan is the set of transfers for one run.
type Plan struct {
	// Transfers are in manifest order
	Transfers []Transfer

	// Present lists retained artifacts the repository already holds
	Present []string

	// Latest is the build id of the last retained build
	Latest string
}

// TotalBytes sums the declared sizes of all transfers.
func (p *Plan) TotalBytes() uint64 {
	var total uint64
	for _, t := range p.Transfers {
		total += t.Size
	}
	return total
}

// Planner builds plans for one repository location.
type Planner struct {
	location storage.Location
}

// New creates a Planner targeting loc.
func New(loc storage.Location) *Planner {
	return &Planner{location: loc}
}

// Plan returns a transfer for every retained build whose rojig artifact is
// not in inv. Retained builds without a rojig image are ignored. An artifact
// name shared by several builds is transferred once.
func (p *Planner) Plan(retained []*cosa.BuildMeta, inv inventory.Inventory) *Plan {
	plan := &Plan{}
	planned := make(map[string]struct{})

	for _, meta := range retained {
		rojig := meta.Rojig()
		if rojig == nil {
			continue
		}
		plan.Latest = meta.BuildID

		if inv.Has(rojig.Path) {
			plan.Present = append(plan.Present, rojig.Path)
			continue
		}
		if _, ok := planned[rojig.Path]; ok {
			continue
		}
		planned[rojig.Path] = struct{}{}

		plan.Transfers = append(plan.Transfers, Transfer{
			BuildID: meta.BuildID,
			Name:    rojig.Path,
			Key:     p.location.Key(rojig.Path),
			Size:    rojig.Size,
			SHA256:  rojig.SHA256,
		})
	}

	return plan
}
