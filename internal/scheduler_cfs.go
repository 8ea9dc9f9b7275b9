// Completely-fair scheduling: always run whichever ready thread has
// accumulated the least virtual runtime, proportioning time slices to each
// thread's share of the total weight of every runnable thread.
//
// Grounded on original_source/schedsi/schedulers/cfs.go. The original
// keeps ready chains in a structure it can still index by position
// (needed to inspect "the second-most-deserving" chain while the first is
// running); container/heap only exposes the minimum, so -- as DESIGN.md
// records -- this keeps the ready set as a slice kept sorted by vruntime
// via sort.Search, exactly mirroring the bisect-based insertion the
// original uses.

package schedsim_internal

import "sort"

// cfsMinGranularity is the smallest time slice CFS will ever hand out,
// regardless of how many threads are runnable.
var cfsMinGranularity = NewTimeFrac(1, 1)

// cfsDefaultShares is the weight a thread gets when AddThread isn't given
// an explicit share count.
const cfsDefaultShares = int64(1024)

// cfsEntry tracks one ready chain's accumulated virtual runtime and its
// share of CPU weight (nice value analogue: more shares, less vruntime
// accrues per unit of wall time actually run, so it gets picked more often
// and with a larger slice).
type cfsEntry struct {
	Chain    *Chain
	Vruntime Time
	Shares   int64
	runSince *Time
}

// CFSData is the CFS scheduler's RCU-protected state.
type CFSData struct {
	Ready          []*cfsEntry
	WaitingChains  []*Chain
	FinishedChains []*Chain

	// WaitingShares remembers a waiting chain's share count (keyed by tid)
	// across the WaitingChains slice, which only holds bare *Chain.
	WaitingShares map[string]int64

	LastIdx int
}

func newCFSData() *CFSData {
	return &CFSData{LastIdx: -1, WaitingShares: make(map[string]int64)}
}

// insertCFSEntry inserts e into ready, kept sorted ascending by vruntime,
// strictly after any existing entries with an equal vruntime (mirrors
// Python's bisect.bisect / bisect_right).
func insertCFSEntry(ready []*cfsEntry, e *cfsEntry) []*cfsEntry {
	idx := sort.Search(len(ready), func(i int) bool { return ready[i].Vruntime.GreaterThan(e.Vruntime) })
	out := make([]*cfsEntry, 0, len(ready)+1)
	out = append(out, ready[:idx]...)
	out = append(out, e)
	out = append(out, ready[idx:]...)
	return out
}

// insertCFSEntryAfterRun re-inserts the chain that was just running. Per
// spec, it cannot immediately land back at the very front (index 0) even if
// its vruntime still ties the new minimum -- that would let it rerun
// back-to-back forever whenever it's the only thread near the minimum --
// so its landing index is forced to at least 1.
func insertCFSEntryAfterRun(ready []*cfsEntry, e *cfsEntry) []*cfsEntry {
	out := insertCFSEntry(ready, e)
	if len(out) > 1 {
		idx := 0
		for i, entry := range out {
			if entry == e {
				idx = i
				break
			}
		}
		if idx == 0 {
			out[0], out[1] = out[1], out[0]
		}
	}
	return out
}

func removeCFSEntryAt(ready []*cfsEntry, idx int) []*cfsEntry {
	out := append([]*cfsEntry(nil), ready[:idx]...)
	return append(out, ready[idx+1:]...)
}

func minVruntime(ready []*cfsEntry) Time {
	if len(ready) == 0 {
		return ZeroTime()
	}
	return ready[0].Vruntime
}

func totalShares(ready []*cfsEntry) int64 {
	var total int64
	for _, e := range ready {
		total += e.Shares
	}
	return total
}

// CFS is the completely-fair scheduler. minPeriod is the target latency in
// which every runnable thread should get at least one turn, divided among
// them in proportion to their shares.
type CFS struct {
	schedulerBase

	minPeriod     Time
	defaultShares int64
}

// NewCFS creates a CFS scheduler targeting minPeriod as the latency in
// which every ready thread gets at least one turn. defaultShares is the
// weight a thread is given when AddThread isn't passed an explicit share
// count; pass 0 to use cfsDefaultShares.
func NewCFS(module *Module, minPeriod Time, defaultShares int64) *CFS {
	if defaultShares <= 0 {
		defaultShares = cfsDefaultShares
	}
	return &CFS{
		schedulerBase: schedulerBase{module: module, rcu: NewRCU(newCFSData())},
		minPeriod:     minPeriod,
		defaultShares: defaultShares,
	}
}

// AddThread registers t. rcuData may be an int64 (or *int64) giving t's
// share of CPU weight; any other value (including nil) falls back to
// defaultShares.
func (s *CFS) AddThread(t Thread, rcuData any) {
	s.threads = append(s.threads, t)
	shares := s.defaultShares
	switch v := rcuData.(type) {
	case int64:
		shares = v
	case *int64:
		if v != nil {
			shares = *v
		}
	}
	s.rcu.Apply(func(d any) {
		data := d.(*CFSData)
		data.WaitingChains = append(data.WaitingChains, ChainFromThread(t))
		data.WaitingShares[t.GetTid()] = shares
	})
}

// sliceFor returns the time slice a thread with shares out of totalShares
// deserves this round, never less than cfsMinGranularity.
func (s *CFS) sliceFor(shares, totalShares int64) Time {
	if totalShares == 0 {
		return cfsMinGranularity
	}
	ts := s.minPeriod.MulInt(shares).DivInt(totalShares)
	return ts.Max(cfsMinGranularity)
}

func (s *CFS) RunScheduleStep(yield YieldFunc, prevRunTime *Time) (*Time, bool) {
	for {
		copy := s.rcu.Copy()
		data := copy.Data.(*CFSData)

		currentTime := yield(RequestCurrentTimeReq()).(Time)

		stillWaiting := data.WaitingChains[:0]
		for _, c := range data.WaitingChains {
			if rt := c.Bottom().ReadyTime(); rt != nil && rt.LessEqual(currentTime) {
				tid := c.Bottom().GetTid()
				shares := data.WaitingShares[tid]
				if shares == 0 {
					shares = s.defaultShares
				}
				delete(data.WaitingShares, tid)
				// New/returning threads start at the current minimum, so
				// they neither starve everyone else nor get a free pass.
				data.Ready = insertCFSEntry(data.Ready, &cfsEntry{Chain: c, Vruntime: minVruntime(data.Ready), Shares: shares})
			} else {
				stillWaiting = append(stillWaiting, c)
			}
		}
		data.WaitingChains = stillWaiting

		if data.LastIdx != -1 {
			entry := data.Ready[data.LastIdx]
			reconcileAddons(s.adjusters, entry.Chain, prevRunTime)
			data.Ready = removeCFSEntryAt(data.Ready, data.LastIdx)
			elapsed := currentTime.Sub(*entry.runSince)
			weighted := elapsed.MulInt(s.defaultShares).DivInt(entry.Shares)
			entry.Vruntime = entry.Vruntime.Add(weighted)

			switch classifyLastChain(entry.Chain, currentTime) {
			case lastChainFinished:
				entry.Chain.Finish(currentTime)
				data.FinishedChains = append(data.FinishedChains, entry.Chain)
				resetAddons(s.adjusters, entry.Chain.Bottom().GetTid())
			case lastChainWaiting:
				data.WaitingChains = append(data.WaitingChains, entry.Chain)
				data.WaitingShares[entry.Chain.Bottom().GetTid()] = entry.Shares
			case lastChainStaysReady:
				data.Ready = insertCFSEntryAfterRun(data.Ready, entry)
			}
		}

		idx := -1
		var timeSlice *Time
		if len(data.Ready) > 0 {
			idx = 0
			ts := s.sliceFor(data.Ready[0].Shares, totalShares(data.Ready))
			timeSlice = &ts
			data.Ready[0].runSince = &currentTime
		}

		readyChains := make([]*Chain, len(data.Ready))
		for i, e := range data.Ready {
			readyChains[i] = e.Chain
		}

		getNextWaiting := func(c *RCUCopy) *Chain {
			return getNextWaitingDefault(c.Data.(*CFSData).WaitingChains)
		}

		nextReadyTime, wentIdle, ok := schedulerCommit(
			yield, s.rcu, copy,
			readyChains,
			func(i int) { data.LastIdx = i },
			func(i int, c *Chain) { data.Ready[i].Chain = c },
			idx, timeSlice, getNextWaiting, s.adjusters,
		)
		if !ok {
			continue
		}
		return nextReadyTime, wentIdle
	}
}
