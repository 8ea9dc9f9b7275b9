// Scheduler base data and the common final "commit" step shared by every
// concrete scheduling policy.
//
// Grounded on original_source/schedsi/schedulers/scheduler.go.

package schedsim_internal

import "fmt"

// YieldFunc performs one cooperative CPU request/reply round-trip. It is
// always a Context's Yielder.Yield passed down from whoever is driving the
// calling coroutine.
type YieldFunc func(*Request) any

// SchedulerData holds a scheduler's mutable state: the queues of chains in
// each state, and which ready_chains index was scheduled last. Specialised
// policies (MLFQ, CFS) embed this and add their own fields.
type SchedulerData struct {
	ReadyChains    []*Chain
	WaitingChains  []*Chain
	FinishedChains []*Chain
	LastIdx        int
}

func NewSchedulerData() *SchedulerData {
	return &SchedulerData{LastIdx: -1}
}

// ThreadKey uniquely identifies a thread across a hierarchy for statistics
// reporting, mirroring the original's (module.name, tid) tuple.
type ThreadKey struct {
	Module string
	Tid    string
}

func (k ThreadKey) String() string { return fmt.Sprintf("%s/%s", k.Module, k.Tid) }

// Scheduler is the interface every concrete scheduling policy implements.
type Scheduler interface {
	GetModule() *Module
	AddThread(t Thread, rcuData any)
	NumThreads() int
	AllThreads() []Thread
	GetThreadStatistics(currentTime Time) map[ThreadKey]*ThreadStats

	// RunScheduleStep performs one full scheduling decision: reclassify the
	// previously scheduled chain, pick (or not) the next chain to run, and
	// commit that decision by yielding timer/resume_chain or idle requests
	// through yield. prevRunTime is how long the previously resumed chain
	// ran in the background since the last call (zero on the very first
	// call). It returns the next known wake-up time (nil if nothing is
	// waiting anywhere) for the caller (a SchedulerThread) to use when the
	// result was idle.
	RunScheduleStep(yield YieldFunc, prevRunTime *Time) (nextReadyTime *Time, wentIdle bool)
}

// moveReadyFromWaiting moves every waiting chain whose bottom thread has
// become ready (ready_time <= time) into the ready queue.
func moveReadyFromWaiting(time Time, ready, waiting *[]*Chain) {
	kept := (*waiting)[:0]
	for _, c := range *waiting {
		if rt := c.Bottom().ReadyTime(); rt != nil && rt.LessEqual(time) {
			*ready = append(*ready, c)
		} else {
			kept = append(kept, c)
		}
	}
	*waiting = kept
}

// lastChainDest classifies where the previously scheduled chain belongs
// once a new scheduling decision starts, mirroring
// schedulers/scheduler.py's _start_schedule reclassification.
type lastChainDest int

const (
	// lastChainStaysReady: still runnable, stays in (or re-enters) ready.
	lastChainStaysReady lastChainDest = iota
	// lastChainFinished: the bottom thread has completed its work.
	lastChainFinished
	// lastChainWaiting: not finished, but its ready_time is now in the
	// future (e.g. a PeriodicWorkThread that just exhausted its burst
	// quota) -- it must not be reconsidered until it becomes ready again.
	lastChainWaiting
)

// classifyLastChain decides the fate of the chain that was running up to
// currentTime. Every concrete policy must honor lastChainWaiting, or a
// not-yet-due thread gets re-selected and resumed before its activation
// time.
func classifyLastChain(chain *Chain, currentTime Time) lastChainDest {
	if chain.Bottom().IsFinished() {
		return lastChainFinished
	}
	if rt := chain.Bottom().ReadyTime(); rt != nil && rt.GreaterThan(currentTime) {
		return lastChainWaiting
	}
	return lastChainStaysReady
}

// reconcileAddons lets time-slice addons observe how long the previously
// scheduled chain actually ran this turn, e.g. to track slice-overrun debt
// (Penalizer). Addons that don't care simply don't implement the optional
// Reconcile hook.
func reconcileAddons(adjusters []Addon, chain *Chain, prevRunTime *Time) {
	if prevRunTime == nil || chain == nil {
		return
	}
	for _, a := range adjusters {
		if r, ok := a.(interface{ Reconcile(*Chain, Time) }); ok {
			r.Reconcile(chain, *prevRunTime)
		}
	}
}

// resetAddons tells every addon that tid has given up the CPU for good
// (finished), so any per-thread debt it tracks can be forgotten.
func resetAddons(adjusters []Addon, tid string) {
	for _, a := range adjusters {
		if r, ok := a.(interface{ Reset(string) }); ok {
			r.Reset(tid)
		}
	}
}

// getNextWaitingDefault returns the waiting chain with the smallest ready
// time, or nil if there are none.
func getNextWaitingDefault(waiting []*Chain) *Chain {
	var best *Chain
	for _, c := range waiting {
		rt := c.Bottom().ReadyTime()
		if rt == nil {
			continue
		}
		if best == nil || rt.LessThan(*best.Bottom().ReadyTime()) {
			best = c
		}
	}
	return best
}

// schedulerCommit is the common final step of every scheduling decision
// (the original's _schedule): it writes LastIdx, attempts the RCU
// compare-and-swap, and yields either {timer, resume_chain} (idx != -1) or
// {idle, possibly preceded by a wake-up timer} (idx == -1).
//
// Returns ok=false if the RCU update lost a race and the whole decision
// must be retried from scratch.
func schedulerCommit(
	yield YieldFunc,
	rcu *RCU,
	rcuCopy *RCUCopy,
	readyChains []*Chain,
	setLastIdx func(idx int),
	replaceReady func(idx int, c *Chain),
	idx int,
	timeSlice *Time,
	getNextWaiting func(*RCUCopy) *Chain,
	adjusters []Addon,
) (nextReadyTime *Time, wentIdle, ok bool) {
	// Give every addon a chance to veto this round's pick (spec.md 4.5's
	// addon "schedule" hook) before anything is committed: a veto means
	// looping back to _start_schedule with nothing having changed, which
	// the caller already does on ok=false (the same path used for a lost
	// RCU race).
	var chain *Chain
	if idx != -1 {
		chain = readyChains[idx]
	}
	var proposed Time
	if timeSlice != nil {
		proposed = *timeSlice
	}
	for _, a := range adjusters {
		proceed, adjusted := a.Schedule(chain, proposed)
		if !proceed {
			return nil, false, false
		}
		proposed = adjusted
	}
	if timeSlice != nil {
		timeSlice = &proposed
	}

	setLastIdx(idx)

	if !rcu.Update(rcuCopy) {
		return nil, false, false
	}

	if idx == -1 {
		next := getNextWaiting(rcuCopy)
		if next != nil {
			nrt := *next.Bottom().ReadyTime()
			nextReadyTime = &nrt
			currentTime := yield(RequestCurrentTimeReq()).(Time)
			delta := nrt.Sub(currentTime)
			if delta.Sign() <= 0 {
				panic("next waiting thread's ready time is not in the future")
			}
			yield(RequestTimerReq(delta))
		} else {
			// Nothing will ever wake this scheduler: drop any slice timer
			// left armed from its last decision.
			yield(RequestTimerClearReq())
		}
		yield(RequestIdleReq())
		return nextReadyTime, true, true
	}

	if timeSlice != nil {
		yield(RequestTimerReq(*timeSlice))
	}
	resumed := yield(RequestResumeChainReq(readyChains[idx])).(*Chain)
	replaceReady(idx, resumed)
	return nil, false, true
}

// schedulerCommitSimple is the common case where readyChains is literally
// data.ReadyChains and LastIdx is data.LastIdx, used by every policy that
// doesn't need multiple independent ready queues.
func schedulerCommitSimple(
	yield YieldFunc,
	rcu *RCU,
	rcuCopy *RCUCopy,
	data *SchedulerData,
	idx int,
	timeSlice *Time,
	getNextWaiting func(*RCUCopy) *Chain,
	adjusters []Addon,
) (*Time, bool, bool) {
	return schedulerCommit(
		yield, rcu, rcuCopy,
		data.ReadyChains,
		func(i int) { data.LastIdx = i },
		func(i int, c *Chain) { data.ReadyChains[i] = c },
		idx, timeSlice, getNextWaiting, adjusters,
	)
}

// getThreadStatistics mirrors Scheduler._get_thread_statistics.
func getThreadStatistics(currentTime Time, threads []Thread) map[ThreadKey]*ThreadStats {
	out := make(map[ThreadKey]*ThreadStats, len(threads))
	for _, t := range threads {
		out[ThreadKey{Module: t.GetModule().Name, Tid: t.GetTid()}] = t.GetStatistics(currentTime)
	}
	return out
}

func allBottomThreads(chains ...[]*Chain) []Thread {
	var out []Thread
	for _, cs := range chains {
		for _, c := range cs {
			out = append(out, c.Bottom())
		}
	}
	return out
}
