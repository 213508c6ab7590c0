package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

var ErrLoaderClosed = errors.New("cache loader closed")

// flight is one pending computation shared by every caller asking for the
// same key while it runs.
type flight struct {
	done    chan struct{}
	val     []byte
	err     error
	waiters int
	stale   atomic.Bool
}

// Loader suppresses cache stampedes: the first caller for a key runs the
// factory (bypass), concurrent callers for the same key wait for its result.
type Loader struct {
	mu      sync.Mutex
	flights map[string]*flight
	closed  bool

	closing context.Context
	close   context.CancelFunc
	running sync.WaitGroup

	waits    atomic.Uint64
	bypasses atomic.Uint64
}

type LoaderStats struct {
	Waits    uint64 `json:"waits"`
	Bypasses uint64 `json:"bypasses"`
	InFlight int    `json:"inFlight"`
}

func NewLoader() *Loader {
	closing, closeFn := context.WithCancel(context.Background())
	return &Loader{
		flights: make(map[string]*flight),
		closing: closing,
		close:   closeFn,
	}
}

// Do returns the value for key, running fn at most once per key at a time.
// fn runs detached from the caller's cancellation: a caller giving up does not
// stop the computation, store still receives the result. store is skipped
// when the key was invalidated while fn was running.
func (l *Loader) Do(
	ctx context.Context,
	key string,
	fn func(ctx context.Context) ([]byte, error),
	store func(val []byte),
) (val []byte, shared bool, err error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, false, ErrLoaderClosed
	}

	if f, ok := l.flights[key]; ok {
		f.waiters++
		l.mu.Unlock()
		l.waits.Add(1)
		val, err := l.wait(ctx, f)
		return val, true, err
	}

	f := &flight{done: make(chan struct{})}
	l.flights[key] = f
	l.running.Add(1)
	l.mu.Unlock()
	l.bypasses.Add(1)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(l.closing, cancel)
	go func() {
		defer l.running.Done()
		defer cancel()
		defer stop()
		l.run(runCtx, key, f, fn, store)
	}()

	val, err = l.wait(ctx, f)
	return val, false, err
}

func (l *Loader) run(
	ctx context.Context,
	key string,
	f *flight,
	fn func(ctx context.Context) ([]byte, error),
	store func(val []byte),
) {
	defer func() {
		if r := recover(); r != nil {
			f.err = fmt.Errorf("cache loader [%s] panic: %v", key, r)
		}

		l.mu.Lock()
		if l.flights[key] == f {
			delete(l.flights, key)
		}
		l.mu.Unlock()
		close(f.done)
	}()

	f.val, f.err = fn(ctx)
	if f.err == nil && store != nil && !f.stale.Load() {
		store(f.val)
	}
}

func (l *Loader) wait(ctx context.Context, f *flight) ([]byte, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closing.Done():
		return nil, ErrLoaderClosed
	}
}

// Invalidate detaches in-flight computations whose key starts with one of the
// prefixes: their results are still handed to current waiters, but are not
// stored, and new callers start a fresh computation.
func (l *Loader) Invalidate(prefixes ...string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, f := range l.flights {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				f.stale.Store(true)
				delete(l.flights, key)
				n++
				break
			}
		}
	}
	return n
}

// Waiting returns how many callers are waiting on the in-flight computation
// for key, or -1 when there is none.
func (l *Loader) Waiting(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.flights[key]; ok {
		return f.waiters
	}
	return -1
}

func (l *Loader) Stats() LoaderStats {
	l.mu.Lock()
	inFlight := len(l.flights)
	l.mu.Unlock()
	return LoaderStats{
		Waits:    l.waits.Load(),
		Bypasses: l.bypasses.Load(),
		InFlight: inFlight,
	}
}

// Shutdown refuses new work, releases all waiters and cancels running
// computations, then waits for them to return or for ctx to expire.
func (l *Loader) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.flights = make(map[string]*flight)
	l.mu.Unlock()
	l.close()

	done := make(chan struct{})
	go func() {
		l.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cache loader shutdown: %w", ctx.Err())
	}
}
