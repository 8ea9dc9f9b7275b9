// Module: a node in the simulated hierarchy.
//
// Grounded on original_source/schedsi/module.go.

package schedsim_internal

import "fmt"

// Module is a node in the simulated hierarchy: it has a unique name, a
// parent (nil for the kernel/root module) and a scheduler, which is itself
// wrapped in a SchedulerThread so that parent modules can run a VCPUThread
// pointed at it.
type Module struct {
	Name      string
	Parent    *Module
	Scheduler *SchedulerThread

	threads  []Thread
	children []*Module
}

// NewModule creates a Module wrapping the given scheduler. If the scheduler
// has a SetModule method, it is pointed back at the new Module here, so the
// *Module given to the scheduler's constructor may be nil.
func NewModule(name string, parent *Module, sched Scheduler) *Module {
	m := &Module{Name: name, Parent: parent}
	if setter, ok := sched.(interface{ SetModule(*Module) }); ok {
		setter.SetModule(m)
	}
	m.Scheduler = NewSchedulerThread(m, "0", sched)
	return m
}

// AddThread registers a new worker (or VCPU) thread with this module's
// scheduler. The thread keeps the tid it was created with; see
// NumWorkThreads for generating sequential ones.
func (m *Module) AddThread(t Thread) {
	m.threads = append(m.threads, t)
	m.Scheduler.AddThread(t, nil)
}

// AddThreadWithShares registers t the same way AddThread does, but passes
// shares through to the scheduler's AddThread as rcuData -- meaningful only
// to CFS, ignored (via type assertion) by every other policy.
func (m *Module) AddThreadWithShares(t Thread, shares int64) {
	m.threads = append(m.threads, t)
	m.Scheduler.AddThread(t, shares)
}

// AddChild registers child as one of this module's children in the
// hierarchy, purely for statistics traversal -- scheduling-wise a child is
// reached only through whichever VCPUThread points at it.
func (m *Module) AddChild(child *Module) {
	m.children = append(m.children, child)
}

// NumWorkThreads returns how many threads have been registered so far,
// used to auto-generate sequential thread ids.
func (m *Module) NumWorkThreads() int {
	return len(m.threads)
}

func (m *Module) String() string {
	return fmt.Sprintf("Module(%s)", m.Name)
}
