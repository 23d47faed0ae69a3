package testutil

import (
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
)

var _ storage.ProgressTracker = (*ProgressRecorder)(nil)

// ProgressRecorder is a storage.ProgressTracker that keeps every call, in order.
type ProgressRecorder struct {
	// Updates holds the transferred byte count of each Update call
	Updates []int64

	// Total is the total reported by the last Update call
	Total int64

	Completed bool
	Err       error
}

func (r *ProgressRecorder) Update(transferred, total int64) {
	r.Updates = append(r.Updates, transferred)
	r.Total = total
}

func (r *ProgressRecorder) Complete() {
	r.Completed = true
}

func (r *ProgressRecorder) Error(err error) {
	r.Err = err
}

// Transferred returns the byte count of the last update, or 0 before any.
func (r *ProgressRecorder) Transferred() int64 {
	if len(r.Updates) == 0 {
		return 0
	}
	return r.Updates[len(r.Updates)-1]
}

// Monotonic reports whether the recorded byte counts never decrease.
func (r *ProgressRecorder) Monotonic() bool {
	for i := 1; i < len(r.Updates); i++ {
		if r.Updates[i] < r.Updates[i-1] {
			return false
		}
	}
	return true
}

// Replay feeds the recorded updates, then the final outcome, into t.
func (r *ProgressRecorder) Replay(t storage.ProgressTracker) {
	for _, n := range r.Updates {
		t.Update(n, r.Total)
	}
	switch {
	case r.Err != nil:
		t.Error(r.Err)
	case r.Completed:
		t.Complete()
	}
}
