package pipeline

import (
	"go.uber.org/atomic"
)

// Result is the error verdict of a phase. Workers of the same phase may mark it failed
// concurrently, phases are combined with Merge.
type Result struct {
	failed *atomic.Bool
}

func newResult() *Result {
	return &Result{failed: atomic.NewBool(false)}
}

func (r *Result) Fail() {
	r.failed.Store(true)
}

func (r *Result) Failed() bool {
	return r.failed.Load()
}

// Merge ORs other into r.
func (r *Result) Merge(other *Result) {
	if other.Failed() {
		r.Fail()
	}
}
