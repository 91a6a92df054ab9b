package observe

import "sync"

// Event is a stateless broadcast: every Emit reaches every subscriber,
// duplicates included.
type Event[T any] struct {
	subs subscribers[T]
}

func (e *Event[T]) Subscribe(fn func(T)) (cancel func()) {
	return e.subs.add(fn)
}

func (e *Event[T]) Emit(v T) {
	for _, sub := range e.subs.snapshot() {
		sub.fn(v)
	}
}

func (e *Event[T]) Subscribers() int {
	return e.subs.len()
}

// Activity counts in-flight jobs. Busy is true while at least one job
// started with Begin has not finished.
type Activity struct {
	mu   sync.Mutex
	n    int
	busy Value[bool]
}

func NewActivity() *Activity {
	return &Activity{}
}

// Begin marks the start of a job. The returned func marks its end; calling
// it more than once has no further effect.
func (a *Activity) Begin() (done func()) {
	a.mu.Lock()
	a.n++
	if a.n == 1 {
		a.busy.Set(true)
	}
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.n--
			if a.n == 0 {
				a.busy.Set(false)
			}
		})
	}
}

// Busy is the aggregated flag. Watchers of Busy must not call Begin.
func (a *Activity) Busy() *Value[bool] {
	return &a.busy
}

// Pending returns the number of unfinished jobs.
func (a *Activity) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}
