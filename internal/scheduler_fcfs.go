// First-come-first-served scheduling: run the head of the ready queue to
// completion, uninterrupted, then move on to the next.
//
// Grounded on original_source/schedsi/schedulers/first_come_first_serve.go.

package schedsim_internal

// schedulerBase holds the fields every concrete scheduling policy shares:
// the owning module, the RCU cell wrapping its data, its registered
// threads and its (policy-specific) default time slice.
type schedulerBase struct {
	module    *Module
	rcu       *RCU
	threads   []Thread
	timeSlice Time
	adjusters []Addon
}

// UseAddons registers one or more time-slice-adjusting addons, applied in
// order every time this scheduler is about to hand the CPU to a thread.
func (b *schedulerBase) UseAddons(addons ...Addon) {
	b.adjusters = append(b.adjusters, addons...)
}

func (b *schedulerBase) GetModule() *Module { return b.module }

// SetModule backfills the owning module once it exists. Constructors take a
// module argument before the module they'll belong to has necessarily been
// created yet (NewModule needs a ready scheduler to build a Module, and a
// scheduler is typically built right at the NewModule call site); NewModule
// calls this immediately after creating the Module to close the loop.
func (b *schedulerBase) SetModule(m *Module) { b.module = m }
func (b *schedulerBase) NumThreads() int    { return len(b.threads) }
func (b *schedulerBase) AllThreads() []Thread {
	return append([]Thread(nil), b.threads...)
}
func (b *schedulerBase) GetThreadStatistics(currentTime Time) map[ThreadKey]*ThreadStats {
	return getThreadStatistics(currentTime, b.threads)
}

func removeChainAt(chains []*Chain, idx int) []*Chain {
	out := append([]*Chain(nil), chains[:idx]...)
	return append(out, chains[idx+1:]...)
}

// FCFS is the plain first-come-first-served scheduler.
type FCFS struct {
	schedulerBase
}

func NewFCFS(module *Module, timeSlice Time) *FCFS {
	return &FCFS{schedulerBase{module: module, rcu: NewRCU(NewSchedulerData()), timeSlice: timeSlice}}
}

// AddThread places a new thread's singleton chain into the waiting queue;
// moveReadyFromWaiting moves it to the ready queue on the first step at or
// after its ready_time.
func (s *FCFS) AddThread(t Thread, _ any) {
	s.threads = append(s.threads, t)
	s.rcu.Apply(func(d any) {
		data := d.(*SchedulerData)
		data.WaitingChains = append(data.WaitingChains, ChainFromThread(t))
	})
}

func (s *FCFS) RunScheduleStep(yield YieldFunc, prevRunTime *Time) (*Time, bool) {
	for {
		copy := s.rcu.Copy()
		data := copy.Data.(*SchedulerData)

		currentTime := yield(RequestCurrentTimeReq()).(Time)
		moveReadyFromWaiting(currentTime, &data.ReadyChains, &data.WaitingChains)

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
			}
		}

		idx := -1
		if len(data.ReadyChains) > 0 {
			idx = 0
		}

		getNextWaiting := func(c *RCUCopy) *Chain {
			return getNextWaitingDefault(c.Data.(*SchedulerData).WaitingChains)
		}

		nextReadyTime, wentIdle, ok := schedulerCommitSimple(yield, s.rcu, copy, data, idx, nil, getNextWaiting, s.adjusters)
		if !ok {
			continue
		}
		return nextReadyTime, wentIdle
	}
}
