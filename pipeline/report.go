package pipeline

import (
	"fmt"
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// Item is the recorded outcome of one processed item.
type Item struct {
	Phase   Phase
	Topic   string
	Role    string
	Subject string
	Path    string
	Outcome Outcome
	Err     error

	// CountsAsError is true if the item flipped the run's error flag.
	CountsAsError bool
	Duration      time.Duration
}

// Report stores the outcome of every item of a run.
type Report struct {
	// items is a map of all recorded items.
	// A unique key in the format "phase:path" is used as map key.
	// Value is of type Item
	items cmap.ConcurrentMap
}

func newReport() *Report {
	return &Report{items: cmap.New()}
}

func (r *Report) add(item Item) {
	r.items.Set(encodeItemKey(item.Phase, item.Path), item)
}

func encodeItemKey(phase Phase, path string) string {
	return fmt.Sprintf("%v:%v", phase, path)
}

// Get returns the item recorded for path in the given phase.
func (r *Report) Get(phase Phase, path string) (Item, bool) {
	v, exists := r.items.Get(encodeItemKey(phase, path))
	if !exists {
		return Item{}, false
	}
	return v.(Item), true
}

// Items returns all items of a phase ordered by path.
func (r *Report) Items(phase Phase) []Item {
	items := make([]Item, 0)
	for tuple := range r.items.IterBuffered() {
		item := tuple.Val.(Item)
		if item.Phase == phase {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	return items
}

// Counts returns the number of items per outcome of a phase.
func (r *Report) Counts(phase Phase) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, item := range r.Items(phase) {
		counts[item.Outcome]++
	}
	return counts
}
