// Package store persists simulation runs so they can be resumed and
// analyzed later. File formats stay behind the Store interface; the sim
// package never sees them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cobubbles/cobubbles/sim"
)

// ErrNotFound reports an operation against a run ID the store does not
// hold.
var ErrNotFound = errors.New("run not found")

// Run is one persisted simulation: its identity, the flat parameter view
// and the full snapshot history.
type Run struct {
	ID        string
	Variant   string
	CreatedAt time.Time
	Params    map[string]float64
	History   []sim.Snapshot
}

// NewRun stamps a fresh run with a UUID identity and the current time.
func NewRun(variant string, params sim.Params) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Variant:   variant,
		CreatedAt: time.Now(),
		Params:    params.Map(),
	}
}

// RunInfo is the listing view of a stored run.
type RunInfo struct {
	ID        string
	Variant   string
	CreatedAt time.Time
	Steps     int
}

// Store is the persistence boundary for runs.
type Store interface {
	// Init prepares the backing storage. Must be called before any other
	// method.
	Init(ctx context.Context) error

	// SaveRun writes a run and its full history, replacing any previous
	// state under the same ID.
	SaveRun(ctx context.Context, run *Run) error

	// LoadRun reads one run. The second return is false when the ID is
	// unknown.
	LoadRun(ctx context.Context, id string) (*Run, bool, error)

	// ListRuns returns the stored runs, oldest first.
	ListRuns(ctx context.Context) ([]RunInfo, error)

	// AppendSteps extends a stored run's history with the snapshots for
	// steps startIter onward. startIter must equal the run's current step
	// count, keeping the iteration index dense.
	AppendSteps(ctx context.Context, id string, startIter int, steps []sim.Snapshot) error

	Close() error
}
