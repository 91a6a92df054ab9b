// Package observe provides the small reactive primitives the map view uses
// to publish its state: watchable values, plain events and an activity
// counter that folds many concurrent jobs into one busy flag.
package observe

import "sync"

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

type subscribers[T any] struct {
	mu   sync.Mutex
	subs []subscriber[T]
	next uint64
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *subscribers[T]) snapshot() []subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]subscriber[T], len(s.subs))
	copy(out, s.subs)
	return out
}

func (s *subscribers[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Value is a watchable value. Watchers are called synchronously, in
// registration order, each time Set changes the value. The zero Value is
// ready to use.
//
// Watchers must not call Set on the same Value.
type Value[T comparable] struct {
	notify sync.Mutex // serializes Set so watchers observe changes in order
	mu     sync.Mutex
	v      T
	subs   subscribers[T]
}

// NewValue returns a Value holding v.
func NewValue[T comparable](v T) *Value[T] {
	return &Value[T]{v: v}
}

func (p *Value[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v
}

// Set stores v and notifies watchers. It reports whether the value changed;
// setting the current value again is a no-op.
func (p *Value[T]) Set(v T) bool {
	p.notify.Lock()
	defer p.notify.Unlock()

	p.mu.Lock()
	if p.v == v {
		p.mu.Unlock()
		return false
	}
	p.v = v
	p.mu.Unlock()

	for _, sub := range p.subs.snapshot() {
		sub.fn(v)
	}
	return true
}

// Watch registers fn for future changes. The returned func unregisters it
// and may be called any number of times.
func (p *Value[T]) Watch(fn func(T)) (cancel func()) {
	return p.subs.add(fn)
}

// Watchers returns the number of registered watchers.
func (p *Value[T]) Watchers() int {
	return p.subs.len()
}

// WhenTrue calls fn every time v becomes true, and once immediately if it
// already is.
func WhenTrue(v *Value[bool], fn func()) (cancel func()) {
	cancel = v.Watch(func(b bool) {
		if b {
			fn()
		}
	})
	if v.Get() {
		fn()
	}
	return cancel
}

// WhenFalse calls fn every time v becomes false.
func WhenFalse(v *Value[bool], fn func()) (cancel func()) {
	return v.Watch(func(b bool) {
		if !b {
			fn()
		}
	})
}
