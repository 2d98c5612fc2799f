// Package future implements a one-shot promise/future pair.
//
// The state shared by the two halves is kept under a spin.Lock: every
// critical section is a handful of field assignments, and completion is
// signalled to waiters by closing a channel outside the lock.
package future

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pi/spinguard/debug"
	"github.com/pi/spinguard/spin"
)

var (
	// ErrRejected is the error of a future rejected with a nil error.
	ErrRejected = errors.New("future: rejected")
	// ErrPanicked is the cause of the error of a future whose Go function
	// panicked.
	ErrPanicked = errors.New("future: function panicked")
)

type completionFunc[T any] func(T, error)

// state.done is set under the lock before Future.c is closed; c is what
// readers go by.
type state[T any] struct {
	done     bool
	result   T
	err      error
	handlers []completionFunc[T]
}

// Future is the consumer half. It is created by New or Go.
type Future[T any] struct {
	st spin.Lock[state[T]]
	c  chan struct{}
}

// Promise is the producer half. Only the first Resolve or Reject counts.
type Promise[T any] struct {
	f *Future[T]
}

func New[T any]() (*Promise[T], *Future[T]) {
	f := &Future[T]{c: make(chan struct{})}
	return &Promise[T]{f: f}, f
}

// Go runs fn on a new goroutine and completes the returned future with its
// result. A panic in fn rejects the future with an error caused by
// ErrPanicked.
func Go[T any](fn func() (T, error)) *Future[T] {
	p, f := New[T]()
	go func() {
		p.complete(call(fn))
	}()
	return f
}

// call runs fn, turning any panic into an error caused by ErrPanicked.
// finished is tracked separately because panic(nil) recovers as nil.
func call[T any](fn func() (T, error)) (v T, err error) {
	finished := false
	defer func() {
		if !finished {
			err = errors.Wrapf(ErrPanicked, "%v", recover())
		}
	}()
	v, err = fn()
	finished = true
	return v, err
}

func runHandler[T any](h completionFunc[T], v T, err error) (r interface{}, panicked bool) {
	panicked = true
	defer func() {
		if panicked {
			r = recover()
		}
	}()
	h(v, err)
	panicked = false
	return nil, false
}

func (p *Promise[T]) Resolve(v T) bool {
	return p.complete(v, nil)
}

func (p *Promise[T]) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}
	var zero T
	return p.complete(zero, err)
}

func (p *Promise[T]) complete(v T, err error) bool {
	var handlers []completionFunc[T]
	completed := false
	p.f.st.Do(func(g *spin.Guard[state[T]]) {
		s := g.Ptr()
		if s.done {
			return
		}
		s.done, s.result, s.err = true, v, err
		handlers, s.handlers = s.handlers, nil
		completed = true
	})
	if !completed {
		return false
	}
	if debug.Enabled {
		debug.Log("future: %p completed, err=%v", p.f, err)
	}
	close(p.f.c)
	var first interface{}
	failed := false
	for _, h := range handlers {
		if r, panicked := runHandler(h, v, err); panicked && !failed {
			first, failed = r, true
		}
	}
	if failed {
		panic(first)
	}
	return true
}

// Future returns the consumer half of p.
func (p *Promise[T]) Future() *Future[T] {
	return p.f
}

// Result returns the outcome without blocking. done is false while the future
// is pending, and agrees with IsDone.
func (f *Future[T]) Result() (v T, done bool, err error) {
	if !f.IsDone() {
		return v, false, nil
	}
	f.st.Do(func(g *spin.Guard[state[T]]) {
		s := g.Ptr()
		v, done, err = s.result, s.done, s.err
	})
	return
}

func (f *Future[T]) outcome() (T, error) {
	v, _, err := f.Result()
	return v, err
}

func (f *Future[T]) Wait() (T, error) {
	<-f.c
	return f.outcome()
}

// WaitContext is Wait bounded by ctx. When ctx ends first the error wraps
// ctx.Err().
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.c:
		return f.outcome()
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(ctx.Err(), "future: wait")
	}
}

// TimedWait reports whether the future completed within timeout, and its
// error if it did.
func (f *Future[T]) TimedWait(timeout time.Duration) (bool, error) {
	select {
	case <-f.c:
		_, err := f.outcome()
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

// IsDone reports whether the future has completed, without blocking.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.c:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on completion.
func (f *Future[T]) Done() <-chan struct{} {
	return f.c
}

// OnComplete registers fn to run once with the outcome. fn runs on the
// completing goroutine, or right away on the caller's if f is already done.
//
// A panicking handler does not stop the others. Once every handler has run,
// the first panic is raised again from Resolve or Reject; under Go that
// crashes the program like any panic on a goroutine.
func (f *Future[T]) OnComplete(fn func(T, error)) *Future[T] {
	var s state[T]
	f.st.Do(func(g *spin.Guard[state[T]]) {
		st := g.Ptr()
		if !st.done {
			st.handlers = append(st.handlers, fn)
			return
		}
		s = *st
	})
	if s.done {
		fn(s.result, s.err)
	}
	return f
}
