// Package manifest walks a build stream for builds carrying a rojig image.
package manifest

import (
	"context"
	"log/slog"

	"github.com/cgwalters/cosa-rojig-repoize/internal/cosa"
)

// Source serves build stream documents.
type Source interface {
	Builds(ctx context.Context) (*cosa.Builds, error)
	BuildMeta(ctx context.Context, id, arch string) (*cosa.BuildMeta, error)
}

// Result is the outcome of one walk.
type Result struct {
	// Indexed is the number of builds listed in builds.json
	Indexed int

	// Inspected holds the build ids whose meta.json was fetched, in manifest order
	Inspected []string

	// Retained holds the metas that carry a rojig image, in manifest order
	Retained []*cosa.BuildMeta
}

// Latest returns the build id of the last retained build, or "" when none was retained.
func (r *Result) Latest() string {
	if len(r.Retained) == 0 {
		return ""
	}
	return r.Retained[len(r.Retained)-1].BuildID
}

// Walker fetches build metadata from a Source.
type Walker struct {
	source Source
	logger *slog.Logger
}

// NewWalker creates a Walker. A nil logger discards output.
func NewWalker(source Source, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Walker{source: source, logger: logger}
}

// Walk fetches builds.json and then the meta.json of the first history builds
// for arch. The first failure aborts the walk. Builds without a rojig image
// are dropped.
func (w *Walker) Walk(ctx context.Context, arch string, history int) (*Result, error) {
	builds, err := w.source.Builds(ctx)
	if err != nil {
		return nil, err
	}

	refs := builds.Builds
	if history < 0 {
		history = 0
	}
	if history < len(refs) {
		refs = refs[:history]
	}

	result := &Result{
		Indexed:   len(builds.Builds),
		Inspected: make([]string, 0, len(refs)),
	}
	for _, ref := range refs {
		meta, err := w.source.BuildMeta(ctx, ref.ID, arch)
		if err != nil {
			return nil, err
		}
		result.Inspected = append(result.Inspected, ref.ID)

		if meta.Rojig() == nil {
			w.logger.Debug("build has no rojig image", "build", ref.ID, "arch", arch)
			continue
		}
		result.Retained = append(result.Retained, meta)
	}

	return result, nil
}
