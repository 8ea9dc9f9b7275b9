// Scheduler addons: composable hooks layered on top of a base scheduling
// policy, able to shorten a proposed time slice or veto a decision outright
// and have the scheduler redo it.
//
// Grounded on original_source/schedsi/schedulers/addons/addon.go,
// fixed_time_slice_scheduler_addon.go, penalizer.go and penalizer_maxer.go.
// The original composes addons into a scheduler by synthesising a new class
// at runtime via exec()-based multiple inheritance and a custom MRO
// metaclass (Addon.attach); Go has no equivalent, so addons here are plain
// values implementing a small interface, applied in sequence by
// schedulerCommit (see DESIGN.md's Open Question (a)) -- composition by
// delegation rather than by dynamic subclassing. The "repeat" control flow
// (spec.md 4.5: an addon may veto a decision and force the scheduler back
// to _start_schedule) is modeled by Schedule returning proceed=false, which
// schedulerCommit turns into the same "retry, nothing committed" signal
// already used for a lost RCU race.

package schedsim_internal

// Addon is consulted once a scheduling policy has proposed a decision:
// chain to run next (nil for idle) and the time slice it intends to grant.
// It may shorten the slice, and may veto the decision entirely by
// returning proceed=false, in which case the scheduler discards everything
// this round and starts over from _start_schedule -- nothing is committed,
// no time passes.
type Addon interface {
	Schedule(chain *Chain, proposed Time) (proceed bool, timeSlice Time)
}

// TimeSliceFixer overrides whatever the base policy proposes with a single
// fixed duration, regardless of system load. This is how a scheduler that
// uses time slices (CFS, MLFQ) is driven under the kernel-only-timer CPU
// policy, which requires the kernel's timer requests to come back with a
// single, addon-supplied value instead of a dynamically computed one.
type TimeSliceFixer struct {
	Fixed Time
}

func NewTimeSliceFixer(fixed Time) *TimeSliceFixer { return &TimeSliceFixer{Fixed: fixed} }

func (f *TimeSliceFixer) Schedule(_ *Chain, _ Time) (bool, Time) { return true, f.Fixed }

// TimeSliceMaxer caps the proposed time slice at Max, letting a level-based
// policy's slice grow no larger than the system allows. Only a slice the
// policy actually proposes is capped: a policy that proposes none (FCFS,
// SJF) keeps running its pick unbounded.
type TimeSliceMaxer struct {
	Max Time
}

func NewTimeSliceMaxer(max Time) *TimeSliceMaxer { return &TimeSliceMaxer{Max: max} }

func (m *TimeSliceMaxer) Schedule(_ *Chain, proposed Time) (bool, Time) {
	return true, proposed.Min(m.Max)
}

// Penalizer tracks a "niceness" debt per thread: each time a chain gives
// back the CPU, niceness += granted_slice - actual_run_time, capped at 0; a
// thread whose niceness has dropped below Tolerance (<= 0) is blocked from
// being rescheduled as long as it hasn't already been offered and blocked
// this round -- the scheduler is forced to redo the decision, and the
// blocked thread is let through unconditionally the very next time it's
// offered, which is what bounds the retry to a single extra round.
//
// Grounded on schedulers/addons/penalizer.py's niceness/sat_out_threads
// bookkeeping, simplified to a single blocked thread at a time (this port
// has no multi-addon interleaving to race against).
type Penalizer struct {
	Tolerance Time

	niceness  map[string]Time
	lastSlice map[string]Time
	satOut    map[string]bool
}

func NewPenalizer(tolerance Time) *Penalizer {
	return &Penalizer{
		Tolerance: tolerance,
		niceness:  make(map[string]Time),
		lastSlice: make(map[string]Time),
		satOut:    make(map[string]bool),
	}
}

func (p *Penalizer) Schedule(chain *Chain, proposed Time) (bool, Time) {
	if chain == nil {
		return true, proposed
	}
	tid := chain.Bottom().GetTid()

	if p.satOut[tid] {
		// Already blocked once this round; let it through so the retry
		// terminates instead of looping forever.
		delete(p.satOut, tid)
	} else if n, ok := p.niceness[tid]; ok && n.LessThan(p.Tolerance) {
		p.satOut[tid] = true
		return false, proposed
	}

	p.lastSlice[tid] = proposed
	return true, proposed
}

// Reconcile updates tid's niceness once its actual run time for the turn
// that just ended is known: an overrun lowers it by the overrun, an
// under-run raises it by the unused part of the slice, never beyond zero.
func (p *Penalizer) Reconcile(chain *Chain, actualRunTime Time) {
	tid := chain.Bottom().GetTid()
	last, ok := p.lastSlice[tid]
	delete(p.lastSlice, tid)
	if !ok {
		return
	}
	n := p.niceness[tid].Add(last.Sub(actualRunTime))
	if n.Sign() > 0 {
		n = ZeroTime()
	}
	p.niceness[tid] = n
}

// Reset clears a thread's niceness debt entirely, e.g. once it has
// finished for good.
func (p *Penalizer) Reset(tid string) {
	delete(p.niceness, tid)
	delete(p.lastSlice, tid)
	delete(p.satOut, tid)
}

// NewPenalizingMaximizer composes a Penalizer with a TimeSliceMaxer so that
// the niceness check runs first and the system-wide cap is applied last --
// the "MaxPen=True" branch of the original's addon composition, where
// TimeSliceMaxer sits outer and Penalizer inner (see DESIGN.md's Open
// Question (b)).
func NewPenalizingMaximizer(tolerance Time, max Time) []Addon {
	return []Addon{NewPenalizer(tolerance), NewTimeSliceMaxer(max)}
}
