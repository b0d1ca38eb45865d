// Package loader implements the fetch-and-render lifecycle shared by every
// dashboard view: concurrent fetches on mount, a long-loading flag after a
// threshold, and a liveness guard that drops results arriving after unmount.
package loader

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultLongLoadingAfter is how long Loading may last before LongLoading is set.
const DefaultLongLoadingAfter = 3 * time.Second

// Status is the tag of a view's state.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// Op is one named fetch issued on mount.
type Op struct {
	Name  string
	Fetch func(ctx context.Context) (any, error)
}

// State is a snapshot of a view. Results is set only when Status is Ready.
type State struct {
	Status      Status         `json:"status"`
	LongLoading bool           `json:"longLoading"`
	Err         string         `json:"error,omitempty"`
	Results     map[string]any `json:"-"`
}

// Result extracts the typed result of the op called name.
func Result[T any](s State, name string) (T, bool) {
	v, ok := s.Results[name].(T)
	return v, ok
}

// Option customizes a View.
type Option func(*View)

// WithLongLoadingAfter overrides DefaultLongLoadingAfter.
func WithLongLoadingAfter(d time.Duration) Option {
	return func(v *View) {
		v.longAfter = d
	}
}

// View is one mounted instance of a view's data lifecycle.
type View struct {
	name      string
	longAfter time.Duration

	mu      sync.Mutex
	state   State
	live    bool
	closed  bool
	timer   *time.Timer
	updates chan State
	done    chan struct{}

	// ran is closed once every fetch has returned and its outcome was applied or dropped.
	ran chan struct{}
}

// Mount starts every op concurrently and returns the live view. Fetches run
// on a context detached from ctx's cancellation: unmounting never aborts a
// request, it only suppresses the resulting state change.
func Mount(ctx context.Context, name string, ops []Op, opts ...Option) *View {
	v := &View{
		name:      name,
		longAfter: DefaultLongLoadingAfter,
		state:     State{Status: StatusLoading},
		live:      true,
		updates:   make(chan State, 3),
		done:      make(chan struct{}),
		ran:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.mu.Lock()
	v.publishLocked()
	v.timer = time.AfterFunc(v.longAfter, v.markLongLoading)
	v.mu.Unlock()

	go v.run(context.WithoutCancel(ctx), ops)
	return v
}

func (v *View) run(ctx context.Context, ops []Op) {
	defer close(v.ran)

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[string]any, len(ops))
	)

	for _, op := range ops {
		op := op
		g.Go(func() error {
			val, err := op.Fetch(ctx)
			if err != nil {
				v.fail(err)
				return err
			}
			mu.Lock()
			results[op.Name] = val
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return
	}
	v.resolve(results)
}

func (v *View) fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live {
		log.Printf("[loader] %s: dropped error after unmount: %v", v.name, err)
		return
	}
	if v.state.Status != StatusLoading {
		return
	}

	v.timer.Stop()
	v.state.Status = StatusError
	v.state.Err = err.Error()
	v.publishLocked()
	v.closeLocked()
}

func (v *View) resolve(results map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live {
		log.Printf("[loader] %s: dropped result after unmount", v.name)
		return
	}
	if v.state.Status != StatusLoading {
		return
	}

	v.timer.Stop()
	v.state.Status = StatusReady
	v.state.Results = results
	v.publishLocked()
	v.closeLocked()
}

func (v *View) markLongLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live || v.state.Status != StatusLoading || v.state.LongLoading {
		return
	}
	v.state.LongLoading = true
	v.publishLocked()
}

// Unmount tears the view down. Later results are discarded and no further
// snapshot is published. Safe to call more than once.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live {
		return
	}
	v.live = false
	v.timer.Stop()
	v.state.LongLoading = false
	v.closeLocked()
}

// State returns the current snapshot.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Updates delivers every published snapshot, starting with the initial
// Loading one. It is closed after the terminal state or on unmount.
func (v *View) Updates() <-chan State {
	return v.updates
}

// Done is closed once the view reached Error or Ready, or was unmounted.
func (v *View) Done() <-chan struct{} {
	return v.done
}

// Wait blocks until Done or ctx ends and returns the snapshot at that point.
func (v *View) Wait(ctx context.Context) State {
	select {
	case <-v.done:
	case <-ctx.Done():
	}
	return v.State()
}

// publishLocked never blocks: at most three snapshots (initial, long-loading,
// terminal) are ever sent into a buffer of three.
func (v *View) publishLocked() {
	if v.closed {
		return
	}
	select {
	case v.updates <- v.state:
	default:
		log.Printf("[loader] %s: update buffer full, snapshot skipped", v.name)
	}
}

func (v *View) closeLocked() {
	if v.closed {
		return
	}
	v.closed = true
	close(v.updates)
	close(v.done)
}
