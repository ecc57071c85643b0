package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"showroom/scene"
)

// ErrAlreadyIssued is returned by Load for a descriptor that was loaded before.
var ErrAlreadyIssued = errors.New("asset: load already issued")

// LoadState is the per-descriptor lifecycle. A descriptor leaves Pending
// exactly once.
type LoadState int

const (
	Unknown LoadState = iota
	Pending
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadError reports a model that could not be read or parsed.
type LoadError struct {
	Descriptor string
	Source     string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load asset %q from %s: %v", e.Descriptor, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Result is the outcome of one load: Node on success, Err (a *LoadError)
// on failure.
type Result struct {
	Descriptor *Descriptor
	Node       *scene.Node
	Err        error
}

func (r Result) State() LoadState {
	if r.Err != nil {
		return Failed
	}
	return Loaded
}

// DecodeFunc turns a model file into a detached node hierarchy. It runs on
// loader goroutines and must not touch shared scene state.
type DecodeFunc func(path string) (*scene.Node, error)

type LoaderOption func(*Loader)

// WithAssetRoot resolves relative sources against dir.
func WithAssetRoot(dir string) LoaderOption {
	return func(l *Loader) { l.root = dir }
}

// WithMaxConcurrent bounds the number of decodes running at once.
func WithMaxConcurrent(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

type entry struct {
	desc   *Descriptor
	state  LoadState
	result Result
	done   chan struct{}
}

// Loader issues asynchronous model loads and tracks their state. There is
// no retry: a failure is terminal for its descriptor.
type Loader struct {
	decode DecodeFunc
	root   string
	sem    *semaphore.Weighted
	log    *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

func NewLoader(decode DecodeFunc, opts ...LoaderOption) *Loader {
	l := &Loader{
		decode:  decode,
		sem:     semaphore.NewWeighted(4),
		log:     slog.Default(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("component", "loader")
	return l
}

// Load starts decoding d in the background and returns a channel that
// yields exactly one Result. It never blocks on I/O.
//
// ctx bounds only the wait for a decode slot: a load still queued when ctx
// ends fails with the context error. A decode that has started always runs
// to completion.
func (l *Loader) Load(ctx context.Context, d *Descriptor) (<-chan Result, error) {
	e, fresh := l.issue(ctx, d)
	if !fresh {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyIssued, d.Name)
	}
	out := make(chan Result, 1)
	go func() {
		<-e.done
		out <- e.result
	}()
	return out, nil
}

// LoadAll issues every descriptor (joining loads already in flight) and
// returns a stream yielding one Result per descriptor in completion order.
// The stream is closed once all of them have settled.
func (l *Loader) LoadAll(ctx context.Context, ds []*Descriptor) <-chan Result {
	out := make(chan Result, len(ds))
	var wg sync.WaitGroup
	for _, d := range ds {
		e, _ := l.issue(ctx, d)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-e.done
			out <- e.result
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// AwaitAll issues every descriptor and blocks until all have settled,
// returning results in descriptor order. If ctx ends first it returns the
// context error; the loads themselves carry on.
func (l *Loader) AwaitAll(ctx context.Context, ds []*Descriptor) ([]Result, error) {
	entries := make([]*entry, len(ds))
	for i, d := range ds {
		entries[i], _ = l.issue(ctx, d)
	}
	results := make([]Result, len(ds))
	for i, e := range entries {
		select {
		case <-e.done:
			results[i] = e.result
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, nil
}

// State reports the load state of the named descriptor.
func (l *Loader) State(name string) LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[name]; ok {
		return e.state
	}
	return Unknown
}

// Counts returns how many issued descriptors are in each state.
func (l *Loader) Counts() (pending, loaded, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		switch e.state {
		case Pending:
			pending++
		case Loaded:
			loaded++
		case Failed:
			failed++
		}
	}
	return
}

// issue registers d and starts its decode, or returns the existing entry
// with fresh == false.
func (l *Loader) issue(ctx context.Context, d *Descriptor) (e *entry, fresh bool) {
	l.mu.Lock()
	if e, ok := l.entries[d.Name]; ok {
		l.mu.Unlock()
		return e, false
	}
	e = &entry{desc: d, state: Pending, done: make(chan struct{})}
	l.entries[d.Name] = e
	l.mu.Unlock()

	l.log.Debug("load issued", "asset", d.Name, "source", d.Source)
	go l.run(ctx, e)
	return e, true
}

func (l *Loader) run(ctx context.Context, e *entry) {
	d := e.desc
	path := l.resolve(d.Source)

	if err := l.sem.Acquire(ctx, 1); err != nil {
		l.settle(e, nil, err, path, 0)
		return
	}
	defer l.sem.Release(1)

	start := time.Now()
	node, err := l.safeDecode(path)
	if err == nil && node == nil {
		err = errors.New("decoder returned no node")
	}
	l.settle(e, node, err, path, time.Since(start))
}

func (l *Loader) safeDecode(path string) (node *scene.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return l.decode(path)
}

func (l *Loader) settle(e *entry, node *scene.Node, err error, path string, took time.Duration) {
	res := Result{Descriptor: e.desc, Node: node}
	state := Loaded
	if err != nil {
		res.Node = nil
		res.Err = &LoadError{Descriptor: e.desc.Name, Source: path, Err: err}
		state = Failed
		l.log.Error("asset load failed", "asset", e.desc.Name, "source", path, "err", err)
	} else {
		l.log.Info("asset loaded", "asset", e.desc.Name, "source", path, "took", took)
	}

	l.mu.Lock()
	e.state = state
	e.result = res
	l.mu.Unlock()
	close(e.done)
}

func (l *Loader) resolve(src string) string {
	if l.root == "" || filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(l.root, src)
}
