// SchedulerThread and VCPUThread: the two thread kinds that make a module
// hierarchy out of individual Scheduler policies.
//
// Grounded on original_source/schedsi/threads/scheduler_thread.go,
// original_source/schedsi/threads/vcpu_thread.go and
// original_source/schedsi/threads/_bg_stat_thread.go.

package schedsim_internal

// SchedulerThread is the thread occupying slot "0" of a Module: its Run
// loop repeatedly drives the module's Scheduler to a decision and yields
// the resulting timer/resume_chain/idle requests up the chain. It also
// accumulates background run time (time spent running a resumed chain that
// belongs to a child module further down, reported via RunBackground) so
// the scheduler can use it on the next decision (e.g. MLFQ's demotion check
// and the addons' Reconcile hook) -- this is the "_bg_stat_thread" behaviour from the
// original source, folded directly into this type rather than kept as a
// separate mixin, since Go has no equivalent to Python's dynamic
// multiple-inheritance composition (see DESIGN.md).
type SchedulerThread struct {
	*BaseThread

	scheduler  Scheduler
	lastBgTime Time
}

// NewSchedulerThread wraps sched in a SchedulerThread that occupies module's
// own thread slot.
func NewSchedulerThread(module *Module, tid string, sched Scheduler) *SchedulerThread {
	return &SchedulerThread{
		BaseThread: NewBaseThread(module, tid, ZeroTime(), nil, nil),
		scheduler:  sched,
	}
}

// AddThread registers a worker or VCPU thread with the wrapped scheduler.
func (s *SchedulerThread) AddThread(t Thread, rcuData any) {
	s.scheduler.AddThread(t, rcuData)
}

// NumThreads returns how many threads the wrapped scheduler knows about.
func (s *SchedulerThread) NumThreads() int { return s.scheduler.NumThreads() }

// GetThreadStatistics forwards to the wrapped scheduler.
func (s *SchedulerThread) GetThreadStatistics(currentTime Time) map[ThreadKey]*ThreadStats {
	return s.scheduler.GetThreadStatistics(currentTime)
}

// RunBackground accumulates background run time to be reported to the
// scheduler on its next decision.
func (s *SchedulerThread) RunBackground(_ Time, runTime Time) {
	s.lastBgTime = s.lastBgTime.Add(runTime)
}

// Run repeatedly drives the wrapped scheduler to a decision. It never
// returns except when the scheduler reports there is, and will never again
// be, anything to run.
func (s *SchedulerThread) Run(y *Yielder) {
	s.isRunning = true
	// Absorb the Context's startup current_time request; schedulers fetch
	// their own fresh current_time as the first step of every decision.
	y.Yield(RequestCurrentTimeReq())
	for {
		prevRunTime := s.lastBgTime
		s.lastBgTime = ZeroTime()

		nextReadyTime, wentIdle := s.scheduler.RunScheduleStep(y.Yield, &prevRunTime)
		if !wentIdle {
			continue
		}
		if nextReadyTime != nil {
			s.readyTime = nextReadyTime
			continue
		}
		z := ZeroTime()
		s.remaining = &z
		s.end()
		return
	}
}

// VCPUThread is a thread in a parent module that represents a virtual CPU
// dedicated to running a child module's scheduler: its whole body is an
// infinite loop resuming the child scheduler's chain. Its readiness is the
// child scheduler's ready time when that is set, else its own bookkeeping;
// exposed as two explicit methods (OwnReadyTime/ReadyTime) rather than the
// attribute-proxy trick (`__getattribute__`) the original uses, since Go
// has no such mechanism (see DESIGN.md's Open Question (c)).
type VCPUThread struct {
	*BaseThread

	child *Module
}

// NewVCPUThread creates a VCPUThread in parentModule dedicated to running
// child's scheduler.
func NewVCPUThread(parentModule *Module, tid string, child *Module) *VCPUThread {
	return &VCPUThread{
		BaseThread: NewBaseThread(parentModule, tid, ZeroTime(), nil, nil),
		child:      child,
	}
}

// OwnReadyTime returns the VCPU thread's own ready time bookkeeping, as
// opposed to the child scheduler's.
func (v *VCPUThread) OwnReadyTime() *Time { return v.BaseThread.ReadyTime() }

// ReadyTime returns the child scheduler's ready time when it has one
// (meaning the child has work to do), falling back to the VCPU's own.
func (v *VCPUThread) ReadyTime() *Time {
	if crt := v.child.Scheduler.ReadyTime(); crt != nil {
		return crt
	}
	return v.OwnReadyTime()
}

func (v *VCPUThread) Remaining() *Time { return v.child.Scheduler.Remaining() }

// RunBackground forwards background run time further down into the child
// scheduler, so a grandchild's accounting still reaches every ancestor.
func (v *VCPUThread) RunBackground(currentTime, runTime Time) {
	v.child.Scheduler.RunBackground(currentTime, runTime)
}

// Run forever delegates execution to the child module's scheduler.
func (v *VCPUThread) Run(y *Yielder) {
	v.isRunning = true
	y.Yield(RequestCurrentTimeReq())
	for {
		chain := ChainFromThread(v.child.Scheduler)
		y.Yield(RequestResumeChainReq(chain))
	}
}
