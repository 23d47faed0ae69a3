package planner

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgwalters/cosa-rojig-repoize/internal/cosa"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/inventory"
)

var loc = storage.Location{Scheme: storage.SchemeS3, Bucket: "b", Prefix: "repo/prefix"}

func build(id, path string) *cosa.BuildMeta {
	return &cosa.BuildMeta{
		BuildID: id,
		Images: &cosa.BuildMetaImages{
			Rojig: &cosa.UncompressedImage{Path: path, Size: uint64(len(path)), SHA256: strings.Repeat("a", 64)},
		},
	}
}

func inv(names ...string) inventory.Inventory {
	i := inventory.Inventory{}
	for _, n := range names {
		i[n] = struct{}{}
	}
	return i
}

func names(transfers []Transfer) []string {
	out := []string{}
	for _, t := range transfers {
		out = append(out, t.Name)
	}
	return out
}

func TestPlanner_Plan(t *testing.T) {
	retained := []*cosa.BuildMeta{
		build("3", "fcos-3.rpm"),
		build("2", "fcos-2.rpm"),
		build("1", "fcos-1.rpm"),
	}

	plan := New(loc).Plan(retained, inv("fcos-2.rpm", "unrelated.rpm"))

	assert.Equal(t, []string{"fcos-3.rpm", "fcos-1.rpm"}, names(plan.Transfers))
	assert.Equal(t, []string{"fcos-2.rpm"}, plan.Present)
	assert.Equal(t, "1", plan.Latest)

	first := plan.Transfers[0]
	assert.Equal(t, "3", first.BuildID)
	assert.Equal(t, "repo/prefix/fcos-3.rpm", first.Key)
	assert.Equal(t, uint64(len("fcos-3.rpm")), first.Size)
	assert.Len(t, first.SHA256, 64)
	assert.Equal(t, uint64(len("fcos-3.rpm")+len("fcos-1.rpm")), plan.TotalBytes())
}

func TestPlanner_Plan_Empty(t *testing.T) {
	plan := New(loc).Plan(nil, inv("a.rpm"))
	assert.Empty(t, plan.Transfers)
	assert.Empty(t, plan.Latest)
}

func TestPlanner_Plan_SharedArtifactTransferredOnce(t *testing.T) {
	plan := New(loc).Plan([]*cosa.BuildMeta{build("2", "same.rpm"), build("1", "same.rpm")}, inv())
	assert.Equal(t, []string{"same.rpm"}, names(plan.Transfers))
	assert.Equal(t, "2", plan.Transfers[0].BuildID)
	assert.Equal(t, "1", plan.Latest)
}

func TestPlanner_Plan_IgnoresBuildsWithoutRojig(t *testing.T) {
	plain := &cosa.BuildMeta{BuildID: "9", Images: &cosa.BuildMetaImages{}}
	plan := New(loc).Plan([]*cosa.BuildMeta{build("1", "a.rpm"), plain}, inv())
	assert.Equal(t, []string{"a.rpm"}, names(plan.Transfers))
	assert.Equal(t, "1", plan.Latest)
}

func TestPlanner_Plan_BasenameMatchingIgnoresPrefix(t *testing.T) {
	// The inventory is built from keys under a different prefix layout.
	i := inv(inventory.Basename("other/layout/foo-1.0.rpm"))
	plan := New(loc).Plan([]*cosa.BuildMeta{build("1", "foo-1.0.rpm")}, i)
	assert.Empty(t, plan.Transfers)
}

// Plans are exactly the retained artifacts missing from the inventory, and
// applying a plan makes the next plan empty.
func TestPlanner_Plan_SetSemanticsAndIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var retained []*cosa.BuildMeta
		nBuilds, nPresent := rng.Intn(12), rng.Intn(8)
		for i := 0; i < nBuilds; i++ {
			retained = append(retained, build(fmt.Sprint(i), fmt.Sprintf("pkg-%d.rpm", rng.Intn(8))))
		}
		current := inv()
		for i := 0; i < nPresent; i++ {
			current[fmt.Sprintf("pkg-%d.rpm", rng.Intn(8))] = struct{}{}
		}

		p := New(loc)
		plan := p.Plan(retained, current)

		want := map[string]struct{}{}
		for _, m := range retained {
			if !current.Has(m.Rojig().Path) {
				want[m.Rojig().Path] = struct{}{}
			}
		}
		got := map[string]struct{}{}
		for _, tr := range plan.Transfers {
			require.False(t, current.Has(tr.Name), "planned artifact already present")
			got[tr.Name] = struct{}{}
		}
		require.Equal(t, want, got)
		require.Len(t, plan.Transfers, len(got), "no artifact planned twice")

		for _, tr := range plan.Transfers {
			current[inventory.Basename(tr.Key)] = struct{}{}
		}
		require.Empty(t, p.Plan(retained, current).Transfers)
	}
}
