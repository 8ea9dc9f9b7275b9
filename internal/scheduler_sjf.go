// Shortest-job-first and preemptive-shortest-job-first scheduling.
//
// Grounded on original_source/schedsi/schedulers/shortest_job_first.go and
// original_source/schedsi/schedulers/preemptive_shortest_job_first.go.

package schedsim_internal

import "sort"

func remainingOf(c *Chain) *Time { return c.Bottom().Remaining() }

// insertSortedByRemaining inserts chain into chains, kept sorted ascending
// by the bottom thread's remaining workload. Threads with unknown
// (infinite) remaining sort last.
func insertSortedByRemaining(chains []*Chain, chain *Chain) []*Chain {
	r := remainingOf(chain)
	idx := sort.Search(len(chains), func(i int) bool {
		ri := remainingOf(chains[i])
		if r == nil {
			return false
		}
		if ri == nil {
			return true
		}
		return ri.GreaterEqual(*r)
	})
	out := make([]*Chain, 0, len(chains)+1)
	out = append(out, chains[:idx]...)
	out = append(out, chain)
	out = append(out, chains[idx:]...)
	return out
}

// SJF runs the ready chain with the least remaining workload to completion,
// without preempting a running chain when a shorter one arrives.
type SJF struct {
	schedulerBase
}

func NewSJF(module *Module, timeSlice Time) *SJF {
	return &SJF{schedulerBase{module: module, rcu: NewRCU(NewSchedulerData()), timeSlice: timeSlice}}
}

func (s *SJF) AddThread(t Thread, _ any) {
	s.threads = append(s.threads, t)
	s.rcu.Apply(func(d any) {
		data := d.(*SchedulerData)
		data.WaitingChains = append(data.WaitingChains, ChainFromThread(t))
	})
}

func (s *SJF) runScheduleStepWithPreempt(yield YieldFunc, prevRunTime *Time, preempt bool) (*Time, bool) {
	for {
		copy := s.rcu.Copy()
		data := copy.Data.(*SchedulerData)

		currentTime := yield(RequestCurrentTimeReq()).(Time)

		// Reclassify waiting threads into the sorted ready queue.
		stillWaiting := data.WaitingChains[:0]
		for _, c := range data.WaitingChains {
			if rt := c.Bottom().ReadyTime(); rt != nil && rt.LessEqual(currentTime) {
				data.ReadyChains = insertSortedByRemaining(data.ReadyChains, c)
			} else {
				stillWaiting = append(stillWaiting, c)
			}
		}
		data.WaitingChains = stillWaiting

		if data.LastIdx != -1 {
			chain := data.ReadyChains[data.LastIdx]
			reconcileAddons(s.adjusters, chain, prevRunTime)
			switch classifyLastChain(chain, currentTime) {
			case lastChainFinished:
				chain.Finish(currentTime)
				data.FinishedChains = append(data.FinishedChains, chain)
				data.ReadyChains = removeChainAt(data.ReadyChains, data.LastIdx)
				resetAddons(s.adjusters, chain.Bottom().GetTid())
			case lastChainWaiting:
				data.ReadyChains = removeChainAt(data.ReadyChains, data.LastIdx)
				data.WaitingChains = append(data.WaitingChains, chain)
			case lastChainStaysReady:
				if preempt {
					// re-sort: the running chain's remaining workload shrank.
					data.ReadyChains = removeChainAt(data.ReadyChains, data.LastIdx)
					data.ReadyChains = insertSortedByRemaining(data.ReadyChains, chain)
				}
			}
		}

		idx := -1
		var timeSlice *Time
		if len(data.ReadyChains) > 0 {
			idx = 0
			if preempt {
				// Scan waiting for a chain whose remaining workload is
				// strictly less than the head's; if one exists, shorten
				// the time slice to exactly its arrival so the CPU fires a
				// timer and re-invokes scheduling at that moment, at which
				// point the newly-ready (shorter) chain sorts ahead.
				headRemaining := remainingOf(data.ReadyChains[idx])
				var nextArrival *Time
				for _, c := range data.WaitingChains {
					r := c.Bottom().Remaining()
					if r == nil || headRemaining == nil || !r.LessThan(*headRemaining) {
						continue
					}
					rt := c.Bottom().ReadyTime()
					if rt == nil {
						continue
					}
					if nextArrival == nil || rt.LessThan(*nextArrival) {
						nextArrival = rt
					}
				}
				if nextArrival != nil {
					delta := nextArrival.Sub(currentTime)
					timeSlice = &delta
				}
			}
		}

		getNextWaiting := func(c *RCUCopy) *Chain {
			return getNextWaitingDefault(c.Data.(*SchedulerData).WaitingChains)
		}

		nextReadyTime, wentIdle, ok := schedulerCommitSimple(yield, s.rcu, copy, data, idx, timeSlice, getNextWaiting, s.adjusters)
		if !ok {
			continue
		}
		return nextReadyTime, wentIdle
	}
}

func (s *SJF) RunScheduleStep(yield YieldFunc, prevRunTime *Time) (*Time, bool) {
	return s.runScheduleStepWithPreempt(yield, prevRunTime, false)
}

// PSJF is SJF with preemption: a newly-readied thread with less remaining
// work than the one currently running preempts it immediately.
type PSJF struct {
	sjfLike *SJF
}

func NewPSJF(module *Module, timeSlice Time) *PSJF {
	return &PSJF{sjfLike: NewSJF(module, timeSlice)}
}

func (s *PSJF) GetModule() *Module    { return s.sjfLike.GetModule() }
func (s *PSJF) SetModule(m *Module)   { s.sjfLike.SetModule(m) }
func (s *PSJF) NumThreads() int    { return s.sjfLike.NumThreads() }
func (s *PSJF) AllThreads() []Thread {
	return s.sjfLike.AllThreads()
}
func (s *PSJF) GetThreadStatistics(currentTime Time) map[ThreadKey]*ThreadStats {
	return s.sjfLike.GetThreadStatistics(currentTime)
}
func (s *PSJF) AddThread(t Thread, rcuData any)  { s.sjfLike.AddThread(t, rcuData) }
func (s *PSJF) UseAddons(addons ...Addon)        { s.sjfLike.UseAddons(addons...) }

func (s *PSJF) RunScheduleStep(yield YieldFunc, prevRunTime *Time) (*Time, bool) {
	return s.sjfLike.runScheduleStepWithPreempt(yield, prevRunTime, true)
}
