package execution

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/birdayz/kbuild/kitem"
)

// contribution is the output of one step for one kind.
type contribution struct {
	step     string
	position int
	items    []kitem.Item
}

type mergeKey struct {
	step string
	kind kitem.ItemKind
}

// Aggregator accumulates the items produced by steps. Contributions are
// ordered by the producing step's position in the execution order, never by
// completion time, so serial and parallel runs aggregate identically.
//
// Aggregator is safe for concurrent use.
type Aggregator struct {
	mu            sync.RWMutex
	merged        map[mergeKey]struct{}
	contributions map[kitem.ItemKind][]contribution
	sealed        bool
}

// NewAggregator creates an empty, unsealed aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		merged:        make(map[mergeKey]struct{}),
		contributions: make(map[kitem.ItemKind][]contribution),
	}
}

// Merge records the items step produced for kind. Merging the same (step, kind)
// pair twice, or merging after Seal, is a no-op and returns false.
func (a *Aggregator) Merge(step string, position int, kind kitem.ItemKind, items []kitem.Item) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return false
	}
	key := mergeKey{step: step, kind: kind}
	if _, ok := a.merged[key]; ok {
		return false
	}
	a.merged[key] = struct{}{}
	a.contributions[kind] = append(a.contributions[kind], contribution{
		step:     step,
		position: position,
		items:    append([]kitem.Item(nil), items...),
	})
	return true
}

// Seal freezes the aggregator.
func (a *Aggregator) Seal() {
	a.mu.Lock()
	a.sealed = true
	a.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (a *Aggregator) Sealed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sealed
}

// Collect returns the current merged view of kind.
func (a *Aggregator) Collect(kind kitem.ItemKind) []kitem.Item {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.collect(kind)
}

// Snapshot returns every kind's merged items. It fails with ErrNotSealed until
// Seal has been called. Kinds that only received empty contributions are
// omitted.
func (a *Aggregator) Snapshot() (map[kitem.ItemKind][]kitem.Item, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.sealed {
		return nil, ErrNotSealed
	}
	out := make(map[kitem.ItemKind][]kitem.Item, len(a.contributions))
	for kind := range a.contributions {
		if items := a.collect(kind); len(items) > 0 {
			out[kind] = items
		}
	}
	return out, nil
}

// collect flattens contributions by position, then emission order. Items with
// an identity key are deduplicated and the first occurrence wins.
// Callers hold a.mu.
func (a *Aggregator) collect(kind kitem.ItemKind) []kitem.Item {
	contribs := append([]contribution(nil), a.contributions[kind]...)
	slices.SortStableFunc(contribs, func(x, y contribution) int {
		return x.position - y.position
	})

	var out []kitem.Item
	seen := make(map[string]struct{})
	for _, c := range contribs {
		for _, it := range c.items {
			if k := it.Key(); k != "" {
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
			}
			out = append(out, it)
		}
	}
	return out
}
