// Package spin provides a busy-wait lock that owns the value it guards.
//
// A Lock never parks the waiting goroutine: Do spins on an atomic swap until
// it wins the flag. It is meant for critical sections a few instructions
// long, such as the state shared between a promise and its future.
//
// The guarded value is only reachable through a Guard, and a Guard only
// exists for the duration of the callback passed to Do. Release happens when
// the callback returns or panics, so there is no Unlock to forget or to call
// twice.
//
// Lock is not fair and not reentrant. Calling Do on a lock from inside its
// own callback spins forever. A panic inside the callback does not poison the
// lock; the value is left as the callback left it.
//
// T must not be tied to the goroutine that created it. Pointers obtained
// from Guard.Ptr must not outlive the callback.
package spin

import (
	"github.com/pi/spinguard/atomic"
	"github.com/pi/spinguard/debug"
)

// Lock guards a value of type T. The zero value is an unlocked lock holding
// the zero T. A Lock must not be copied after first use.
type Lock[T any] struct {
	_      noCopy
	locked atomic.Bool
	value  T
}

// New returns an unlocked lock holding v.
func New[T any](v T) *Lock[T] {
	return &Lock[T]{value: v}
}

// Guard is the scoped access handle handed to the callback of Do.
type Guard[T any] struct {
	l *Lock[T]
}

func (l *Lock[T]) acquire() {
	// A true result means somebody else holds the flag and our swap stored
	// true over true.
	if !l.locked.Swap(true) {
		return
	}
	if debug.Enabled {
		debug.Log("spin: contended acquire on %p", l)
	}
	for l.locked.Swap(true) {
	}
}

func (l *Lock[T]) release(g *Guard[T]) {
	g.l = nil
	if !l.locked.Swap(false) && debug.Enabled {
		panic("spin: unlocking unlocked lock")
	}
}

// Do acquires the lock, runs fn with a guard over the value and releases the
// lock when fn returns or panics. A panic is propagated after release.
func (l *Lock[T]) Do(fn func(g *Guard[T])) {
	l.acquire()
	g := &Guard[T]{l: l}
	defer l.release(g)
	fn(g)
}

// DoErr is Do for callbacks that can fail. The error is returned as is, after
// the lock is released.
func (l *Lock[T]) DoErr(fn func(g *Guard[T]) error) error {
	l.acquire()
	g := &Guard[T]{l: l}
	defer l.release(g)
	return fn(g)
}

// With runs fn with a pointer to the guarded value under the lock.
func (l *Lock[T]) With(fn func(v *T)) {
	l.Do(func(g *Guard[T]) { fn(g.Ptr()) })
}

// Value returns a copy of the guarded value.
func (l *Lock[T]) Value() (v T) {
	l.Do(func(g *Guard[T]) { v = g.Get() })
	return v
}

// Store replaces the guarded value.
func (l *Lock[T]) Store(v T) {
	l.Do(func(g *Guard[T]) { g.Set(v) })
}

func (g *Guard[T]) lock() *Lock[T] {
	if debug.Enabled && g.l == nil {
		panic("spin: guard used after release")
	}
	return g.l
}

// Get returns a copy of the guarded value.
func (g *Guard[T]) Get() T {
	return g.lock().value
}

// Set replaces the guarded value.
func (g *Guard[T]) Set(v T) {
	g.lock().value = v
}

// Ptr returns a pointer to the guarded value, valid until the guard is
// released.
func (g *Guard[T]) Ptr() *T {
	return &g.lock().value
}

// noCopy makes go vet's copylocks check flag copies of Lock.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
