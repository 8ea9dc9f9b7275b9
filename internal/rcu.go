// RCU cell protecting a scheduler's mutable SchedulerData.
//
// Grounded on original_source/schedsi/rcu.go. copy() returns a versioned
// snapshot a scheduler coroutine can freely mutate; update(snapshot)
// compare-and-swaps it back in, failing silently (as in the original) if
// another write raced ahead of it; apply(fn) and look(fn) give exclusive
// mutate and read-only access respectively.
//
// Every actual write path in this simulator runs from the single scheduling
// coroutine driving a given module (there is no multi-core parallelism --
// see spec.md's Non-goals), so the lock below never experiences real
// contention; it exists to keep the copy/update/apply/look API faithful to
// the original rather than to arbitrate concurrent writers.

package schedsim_internal

import (
	"reflect"
	"sync"

	"github.com/huandu/go-clone"
)

func init() {
	// *Context (and transitively the Thread it wraps) is shared by
	// reference across RCU snapshots, never deep-cloned: this gives the
	// two-level shallow copy spec.md's Design Notes describe -- chain and
	// queue slices are duplicated per snapshot, but the leaf Context/
	// Thread objects are not.
	clone.MarkAsOpaquePointer(reflect.TypeOf(&Context{}))
}

// RCU is a read-copy-update cell wrapping a scheduler's mutable data.
type RCU struct {
	mu   sync.Mutex
	uid  uint64
	data any
}

// NewRCU wraps data (expected to be a pointer to a SchedulerData-embedding
// struct) in a new RCU cell.
func NewRCU(data any) *RCU {
	return &RCU{data: data}
}

// RCUCopy is a versioned snapshot obtained from RCU.Copy.
type RCUCopy struct {
	Data any

	rcu *RCU
	uid uint64
}

// Read returns the live data pointer directly, without copying. Safe only
// for read-only inspection from the single scheduling coroutine.
func (r *RCU) Read() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Copy returns an independent, clonable snapshot of the current data.
func (r *RCU) Copy() *RCUCopy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &RCUCopy{Data: clone.Clone(r.data), rcu: r, uid: r.uid}
}

// Update compare-and-swaps snap back into r. Returns false (without
// modifying r) if r was mutated since snap was taken.
func (r *RCU) Update(snap *RCUCopy) bool {
	if snap.rcu != r {
		panic("RCUCopy update against the wrong RCU cell")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uid != snap.uid {
		return false
	}
	r.data = snap.Data
	r.uid++
	return true
}

// Apply exclusively mutates the live data via fn.
func (r *RCU) Apply(fn func(data any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.data)
	r.uid++
}

// Look runs fn against the live data for read-only inspection, returning
// fn's result.
func (r *RCU) Look(fn func(data any) any) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.data)
}
