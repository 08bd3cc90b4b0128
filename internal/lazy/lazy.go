// Package lazy provides a once-only, fail-fast initializer for expensive shared resources
// such as embedding models and job corpora.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is the lifecycle state of a Value.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInitializing is returned to callers that arrive while another caller is running the initializer.
// Callers should retry later.
var ErrInitializing = errors.New("initialization in progress, retry later")

// InitError is the cached, terminal failure of an initializer.
type InitError struct {
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s initialization failed: %v", e.Name, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// InitFunc builds the value. It runs at most once per Value.
type InitFunc[T any] func(ctx context.Context) (T, error)

// Option configures a Value.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report state transitions.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Value holds a lazily built resource. After it reaches Ready the value is shared read-only;
// after it reaches Failed every Get returns the same *InitError until the process restarts.
type Value[T any] struct {
	name   string
	init   InitFunc[T]
	logger *zap.Logger

	mu    sync.Mutex
	state State
	value T
	err   error
	// done is closed once the value leaves Initializing for good.
	done chan struct{}
}

// New returns a Value in the uninitialized state.
func New[T any](name string, init InitFunc[T], opts ...Option) *Value[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Value[T]{name: name, init: init, logger: o.logger, done: make(chan struct{})}
}

// Ready returns a Value that is already initialized with v.
func Ready[T any](name string, v T) *Value[T] {
	done := make(chan struct{})
	close(done)
	return &Value[T]{name: name, logger: zap.NewNop(), state: StateReady, value: v, done: done}
}

// Name returns the resource name used in logs and errors.
func (v *Value[T]) Name() string { return v.name }

// Get returns the value, running the initializer on first use.
// A concurrent caller that finds initialization in progress gets ErrInitializing immediately.
// The initializer is detached from ctx cancellation so an aborted request cannot poison the cache.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	var zero T
	v.mu.Lock()
	switch v.state {
	case StateReady:
		val := v.value
		v.mu.Unlock()
		return val, nil
	case StateFailed:
		err := v.err
		v.mu.Unlock()
		return zero, err
	case StateInitializing:
		v.mu.Unlock()
		return zero, ErrInitializing
	}
	v.state = StateInitializing
	v.mu.Unlock()

	v.logger.Info("initializing", zap.String("resource", v.name))
	val, err := v.run(context.WithoutCancel(ctx))

	v.mu.Lock()
	defer v.mu.Unlock()
	defer close(v.done)
	if err != nil {
		v.state = StateFailed
		v.err = &InitError{Name: v.name, Err: err}
		v.logger.Error("initialization failed", zap.String("resource", v.name), zap.Error(err))
		return zero, v.err
	}
	v.state = StateReady
	v.value = val
	v.logger.Info("initialized", zap.String("resource", v.name))
	return val, nil
}

func (v *Value[T]) run(ctx context.Context) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return v.init(ctx)
}

// Wait is like Get but blocks while another caller is initializing, until the
// value settles or ctx is done. Use it from initializers that depend on other values.
func (v *Value[T]) Wait(ctx context.Context) (T, error) {
	val, err := v.Get(ctx)
	if !errors.Is(err, ErrInitializing) {
		return val, err
	}
	select {
	case <-v.done:
		return v.Get(ctx)
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Warm starts initialization in the background. Errors are cached and logged, not returned.
func (v *Value[T]) Warm(ctx context.Context) {
	go func() { _, _ = v.Get(ctx) }()
}

// State returns the current lifecycle state.
func (v *Value[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Peek returns the value without triggering initialization.
func (v *Value[T]) Peek() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateReady {
		var zero T
		return zero, false
	}
	return v.value, true
}
