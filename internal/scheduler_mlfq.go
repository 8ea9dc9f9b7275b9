// Multilevel feedback queue scheduling, and round-robin as its one-level
// special case.
//
// Grounded on original_source/schedsi/schedulers/multilevel_feedback_queue.go
// and original_source/schedsi/schedulers/round_robin.go.

package schedsim_internal

// MLFQData is the MLFQ scheduler's RCU-protected state: one ready queue and
// one waiting queue per priority level (lower index = higher priority =
// shorter time slice), mirroring the original's 2L+1 queues (the +1 is the
// shared finished queue).
type MLFQData struct {
	Levels       [][]*Chain
	LevelWaiting [][]*Chain
	FinishedChains []*Chain

	LastLevel int
	LastIdx   int

	// LastBoostTime is when priority levels were last flattened back to 0.
	// nil until the first RunScheduleStep call sees a current time to seed it.
	LastBoostTime *Time
}

func newMLFQData(numLevels int) *MLFQData {
	return &MLFQData{
		Levels:       make([][]*Chain, numLevels),
		LevelWaiting: make([][]*Chain, numLevels),
		LastLevel:    -1,
		LastIdx:      -1,
	}
}

// MLFQ is a multilevel feedback queue: a thread starts at level 0 (the
// shortest time slice) and is demoted one level every time it consumes a
// full slice without finishing; a thread that blocks and becomes ready
// again re-enters at the level it left. An optional priority boost period
// periodically flattens every level back to 0, preventing starvation.
type MLFQ struct {
	schedulerBase

	timeSlices []Time
	boostPeriod *Time
}

// (adjusters live on the embedded schedulerBase, set via UseAddons.)

// NewMLFQ creates an MLFQ scheduler whose levels use the given time slices,
// from highest to lowest priority. RoundRobin is the len(timeSlices)==1
// case.
func NewMLFQ(module *Module, timeSlices []Time) *MLFQ {
	if len(timeSlices) == 0 {
		panic("MLFQ needs at least one level")
	}
	return &MLFQ{
		schedulerBase: schedulerBase{module: module, rcu: NewRCU(newMLFQData(len(timeSlices)))},
		timeSlices:    append([]Time(nil), timeSlices...),
	}
}

// NewRoundRobin is MLFQ with a single level, i.e. plain round-robin.
func NewRoundRobin(module *Module, timeSlice Time) *MLFQ {
	return NewMLFQ(module, []Time{timeSlice})
}

// SetPriorityBoost enables periodic priority boosting: every period of
// elapsed time, all ready and waiting chains are flattened back into level
// 0 so that a long-running level-0 hog can't starve chains demoted earlier.
// With L==1 this has no observable effect (there is only one level).
func (s *MLFQ) SetPriorityBoost(period Time) { s.boostPeriod = &period }

func (s *MLFQ) AddThread(t Thread, _ any) {
	s.threads = append(s.threads, t)
	s.rcu.Apply(func(d any) {
		data := d.(*MLFQData)
		data.LevelWaiting[0] = append(data.LevelWaiting[0], ChainFromThread(t))
	})
}

func (s *MLFQ) RunScheduleStep(yield YieldFunc, prevRunTime *Time) (*Time, bool) {
	for {
		copy := s.rcu.Copy()
		data := copy.Data.(*MLFQData)

		currentTime := yield(RequestCurrentTimeReq()).(Time)
		if data.LastBoostTime == nil {
			seed := currentTime
			data.LastBoostTime = &seed
		}

		// Threads that have become ready re-enter at the level they left
		// (not necessarily level 0 -- a demoted thread that blocks on I/O
		// and comes back keeps its level).
		for lvl := range data.Levels {
			stillWaiting := data.LevelWaiting[lvl][:0]
			for _, c := range data.LevelWaiting[lvl] {
				if rt := c.Bottom().ReadyTime(); rt != nil && rt.LessEqual(currentTime) {
					data.Levels[lvl] = append(data.Levels[lvl], c)
				} else {
					stillWaiting = append(stillWaiting, c)
				}
			}
			data.LevelWaiting[lvl] = stillWaiting
		}

		prevLevel := data.LastLevel

		if data.LastLevel != -1 {
			level := data.Levels[data.LastLevel]
			chain := level[data.LastIdx]
			reconcileAddons(s.adjusters, chain, prevRunTime)
			level = removeChainAt(level, data.LastIdx)
			data.Levels[data.LastLevel] = level

			switch classifyLastChain(chain, currentTime) {
			case lastChainFinished:
				chain.Finish(currentTime)
				data.FinishedChains = append(data.FinishedChains, chain)
				resetAddons(s.adjusters, chain.Bottom().GetTid())
			case lastChainWaiting:
				data.LevelWaiting[data.LastLevel] = append(data.LevelWaiting[data.LastLevel], chain)
			case lastChainStaysReady:
				// Demote only if the full slice was actually consumed --
				// not merely started and then handed back early (e.g. by
				// an addon veto or an early block). The original tracks
				// this via last_finish_time == ready_time; prevRunTime
				// (how long it ran in the background) gives the same
				// answer directly.
				fullSlice := prevRunTime != nil && !prevRunTime.LessThan(s.timeSlices[data.LastLevel])
				if fullSlice && data.LastLevel < len(data.Levels)-1 {
					data.Levels[data.LastLevel+1] = append(data.Levels[data.LastLevel+1], chain)
				} else {
					// Round-robin: goes to the tail of its own level.
					data.Levels[data.LastLevel] = append(data.Levels[data.LastLevel], chain)
				}
			}
		}

		if s.boostPeriod != nil {
			elapsed := currentTime.Sub(*data.LastBoostTime)
			if !elapsed.LessThan(*s.boostPeriod) {
				flattenPriorities(data, prevLevel)
				overshoot := elapsed.Sub(*s.boostPeriod)
				boosted := currentTime.Sub(overshoot)
				data.LastBoostTime = &boosted
			}
		}

		level := -1
		for i, q := range data.Levels {
			if len(q) > 0 {
				level = i
				break
			}
		}

		idx := -1
		var timeSlice *Time
		if level != -1 {
			idx = 0
			ts := s.timeSlices[level]
			timeSlice = &ts
		}

		getNextWaiting := func(c *RCUCopy) *Chain {
			d := c.Data.(*MLFQData)
			var best *Chain
			for _, wq := range d.LevelWaiting {
				n := getNextWaitingDefault(wq)
				if n == nil {
					continue
				}
				if best == nil || n.Bottom().ReadyTime().LessThan(*best.Bottom().ReadyTime()) {
					best = n
				}
			}
			return best
		}

		var readyChains []*Chain
		if level != -1 {
			readyChains = data.Levels[level]
		}

		nextReadyTime, wentIdle, ok := schedulerCommit(
			yield, s.rcu, copy,
			readyChains,
			func(i int) { data.LastLevel, data.LastIdx = level, i },
			func(i int, c *Chain) { data.Levels[level][i] = c },
			idx, timeSlice, getNextWaiting, s.adjusters,
		)
		if !ok {
			continue
		}
		return nextReadyTime, wentIdle
	}
}

// flattenPriorities implements the periodic priority boost: every ready and
// waiting chain across all levels is moved into level 0, rotated so that
// whatever was in prevLevel lands at the front (it was about to run next
// anyway, a boost shouldn't reorder it behind everything else).
func flattenPriorities(data *MLFQData, prevLevel int) {
	var flattened []*Chain
	if prevLevel >= 0 {
		flattened = append(flattened, data.Levels[prevLevel]...)
		data.Levels[prevLevel] = nil
	}
	for lvl := range data.Levels {
		if lvl == prevLevel {
			continue
		}
		flattened = append(flattened, data.Levels[lvl]...)
		data.Levels[lvl] = nil
	}
	data.Levels[0] = flattened

	var waiting []*Chain
	if prevLevel >= 0 {
		waiting = append(waiting, data.LevelWaiting[prevLevel]...)
		data.LevelWaiting[prevLevel] = nil
	}
	for lvl := range data.LevelWaiting {
		if lvl == prevLevel {
			continue
		}
		waiting = append(waiting, data.LevelWaiting[lvl]...)
		data.LevelWaiting[lvl] = nil
	}
	data.LevelWaiting[0] = waiting
}
