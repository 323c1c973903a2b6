// Package fov implements the Field-of-View layer: the VIEWOFNODE
// capability, answering "is satellite S visible from ground point G at time
// t" for the radio substrate's per-epoch link resolution. Two
// interchangeable strategies are provided: an elevation-sampled strategy
// that queries the oracle directly per epoch, and a pass-table strategy
// that precomputes and memoizes rise/set windows once and binary-searches
// them thereafter.
package fov

import (
	"sort"
	"sync"
	"time"

	"github.com/orbsim/orbsim/internal/oracle"
)

// Strategy answers visibility queries for a single satellite/ground-point
// pair. Implementations must be safe for concurrent use; the manager may
// advance independent topologies concurrently in parallel mode.
type Strategy interface {
	// Visible reports whether satID is above minElevationDeg as seen from g
	// at time t.
	Visible(satID int, g oracle.GroundPoint, t time.Time, minElevationDeg float64) (bool, error)
}

// ElevationSampled queries the oracle's relative-motion/elevation geometry
// directly for every call. O(epochs x candidate pairs), but requires no
// precomputation and handles ground points that move or change between
// calls.
type ElevationSampled struct {
	Oracle *oracle.Oracle
}

// NewElevationSampled builds the direct-query strategy.
func NewElevationSampled(o *oracle.Oracle) *ElevationSampled {
	return &ElevationSampled{Oracle: o}
}

// Visible implements Strategy by sampling a single instant: a degenerate
// one-point pass window at t.
func (e *ElevationSampled) Visible(satID int, g oracle.GroundPoint, t time.Time, minElevationDeg float64) (bool, error) {
	windows, err := e.Oracle.Passes(satID, g, t, t, minElevationDeg, time.Second)
	if err != nil {
		return false, err
	}
	return len(windows) > 0, nil
}

// passTableKey identifies one memoized (satellite, ground-point, threshold)
// pass table.
type passTableKey struct {
	satID           int
	latDeg, lonDeg  float64
	minElevationDeg float64
}

// passTableMemo is a process-wide, publish-once cache of pass windows. Each
// key is computed at most once: the first caller to observe a miss computes
// the full-horizon table and stores it; subsequent callers for the same key
// only ever take the read lock. This mirrors fabric.go's lazily-populated,
// RWMutex-guarded peer map.
type passTableMemo struct {
	mu     sync.RWMutex
	tables map[passTableKey][]oracle.PassWindow
}

var globalPassTables = &passTableMemo{tables: map[passTableKey][]oracle.PassWindow{}}

func (m *passTableMemo) get(key passTableKey) ([]oracle.PassWindow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.tables[key]
	return w, ok
}

func (m *passTableMemo) publish(key passTableKey, windows []oracle.PassWindow) []oracle.PassWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have published first; keep whichever landed
	// first so every caller observes the same table for a given key.
	if existing, ok := m.tables[key]; ok {
		return existing
	}
	m.tables[key] = windows
	return windows
}

// PassTable is the memoized strategy: it computes the full-horizon pass
// table for a (satellite, ground point) pair once, then answers each
// subsequent query with a binary search, suited to repeated-query
// workloads over a fixed horizon.
type PassTable struct {
	Oracle       *oracle.Oracle
	HorizonStart time.Time
	HorizonEnd   time.Time
	SampleStep   time.Duration
	memo         *passTableMemo
}

// NewPassTable builds the memoized strategy over a fixed simulation horizon,
// backed by the process-wide global pass-table memo.
func NewPassTable(o *oracle.Oracle, start, end time.Time, step time.Duration) *PassTable {
	return &PassTable{Oracle: o, HorizonStart: start, HorizonEnd: end, SampleStep: step, memo: globalPassTables}
}

func (p *PassTable) tableFor(satID int, g oracle.GroundPoint, minElevationDeg float64) ([]oracle.PassWindow, error) {
	key := passTableKey{satID: satID, latDeg: g.LatDeg, lonDeg: g.LonDeg, minElevationDeg: minElevationDeg}
	if w, ok := p.memo.get(key); ok {
		return w, nil
	}
	windows, err := p.Oracle.Passes(satID, g, p.HorizonStart, p.HorizonEnd, minElevationDeg, p.SampleStep)
	if err != nil {
		return nil, err
	}
	oracle.SortPassWindows(windows)
	return p.memo.publish(key, windows), nil
}

// Visible implements Strategy via binary search over the memoized windows.
func (p *PassTable) Visible(satID int, g oracle.GroundPoint, t time.Time, minElevationDeg float64) (bool, error) {
	windows, err := p.tableFor(satID, g, minElevationDeg)
	if err != nil {
		return false, err
	}
	// Find the first window whose Start is after t; the candidate window is
	// the one immediately before it. Windows are half-open [Start, End): End
	// is the first sampled instant at which the satellite was back below the
	// elevation threshold.
	idx := sort.Search(len(windows), func(i int) bool { return windows[i].Start.After(t) })
	if idx == 0 {
		return false, nil
	}
	w := windows[idx-1]
	return !t.Before(w.Start) && t.Before(w.End), nil
}
