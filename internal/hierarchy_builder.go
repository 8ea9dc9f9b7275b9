// ModuleBuilder: a small fluent helper for assembling a static module
// hierarchy before a run starts.
//
// Grounded on original_source/schedsi/hierarchy_builder.go. The original
// also offers a ModuleBuilderThread variant that lets a running simulation
// reconfigure its own hierarchy live; that is out of scope here (spec.md's
// Non-goals exclude live reconfiguration), so only the static builder is
// ported.

package schedsim_internal

// ModuleBuilder assembles a Module tree: add worker threads directly to a
// module, or add a VCPU thread that points at a freshly built child module
// running its own scheduler.
type ModuleBuilder struct {
	root *Module
}

// NewModuleBuilder starts building a hierarchy rooted at a module named
// name, running sched as its scheduler.
func NewModuleBuilder(name string, sched Scheduler) *ModuleBuilder {
	return &ModuleBuilder{root: NewModule(name, nil, sched)}
}

// Root returns the hierarchy's root (kernel) module.
func (b *ModuleBuilder) Root() *Module { return b.root }

// AddModule creates a new child module under parent, running its own
// scheduler, without yet connecting any VCPU to it.
func AddModule(parent *Module, name string, sched Scheduler) *Module {
	child := NewModule(name, parent, sched)
	parent.AddChild(child)
	return child
}

// AddThread registers a plain worker (or periodic-work) thread with
// module's scheduler.
func (b *ModuleBuilder) AddThread(module *Module, t Thread) {
	module.AddThread(t)
}

// AddThreadWithShares registers t the same way AddThread does, additionally
// passing a CFS share count (ignored by every other policy).
func (b *ModuleBuilder) AddThreadWithShares(module *Module, t Thread, shares int64) {
	module.AddThreadWithShares(t, shares)
}

// AddVCPUs gives module n VCPU threads, each dedicated to running child's
// scheduler -- child effectively gets n-way scheduling concurrency within
// module's timeline.
func (b *ModuleBuilder) AddVCPUs(module, child *Module, n int) {
	for i := 0; i < n; i++ {
		tid := formatTid(module.NumWorkThreads())
		module.AddThread(NewVCPUThread(module, tid, child))
	}
}

func formatTid(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return string(digits[n])
	}
	// Simple decimal formatting without importing strconv's full surface,
	// consistent with how small a hierarchy ever gets in practice.
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return string(buf)
}
