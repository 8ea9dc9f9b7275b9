// The basic Thread abstraction and its default worker variant.
//
// Grounded on original_source/schedsi/threads/thread.go.

package schedsim_internal

// LogIndividualRunTimes controls whether per-slice run/wait/ctxsw times are
// recorded individually (true); when false only the total run time is kept.
var LogIndividualRunTimes = true

// ThreadStats mirrors _ThreadStats from the original source.
type ThreadStats struct {
	FinishedTime *Time
	ResponseTime *Time
	Ctxsw        []Time
	Run          [][]Time
	TotalRun     Time
	Wait         [][]Time

	// Populated only by GetStatistics, not persistent state.
	Waiting   *Time
	Remaining *Time
}

// Thread is the common interface every schedulable unit implements: plain
// worker threads, periodic-work threads, and the SchedulerThread/VCPUThread
// frames that forward execution into a child module's scheduler.
type Thread interface {
	// Run is the thread's coroutine body; it is driven by a Context.
	Run(y *Yielder)
	IsFinished() bool
	ReadyTime() *Time
	Remaining() *Time
	RunCtxsw(currentTime, runTime Time)
	RunBackground(currentTime, runTime Time)
	RunCrunch(currentTime, runTime Time)
	Suspend(currentTime Time)
	Resume(currentTime Time, returning bool)
	Finish(currentTime Time)
	GetStatistics(currentTime Time) *ThreadStats
	GetModule() *Module
	GetTid() string
}

// BaseThread implements the bulk of Thread; concrete thread kinds embed it
// and override Run (and, where needed, RunCrunch/Finish) for their own
// execution semantics.
type BaseThread struct {
	module *Module
	tid    string

	readyTime     *Time
	responseUnits *Time
	remaining     *Time

	isRunning bool
	stats     ThreadStats
}

// NewBaseThread creates a BaseThread. readyTime must be non-negative;
// remaining/responseUnits of nil mean "infinite"/"irrelevant" respectively.
func NewBaseThread(module *Module, tid string, readyTime Time, remaining, responseUnits *Time) *BaseThread {
	if readyTime.Sign() < 0 {
		panic("ready_time must be >= 0")
	}
	return &BaseThread{
		module:        module,
		tid:           tid,
		readyTime:     &readyTime,
		remaining:     remaining,
		responseUnits: responseUnits,
	}
}

func (t *BaseThread) GetModule() *Module { return t.module }
func (t *BaseThread) GetTid() string     { return t.tid }

func (t *BaseThread) IsFinished() bool {
	return t.remaining != nil && t.remaining.IsZero()
}

func (t *BaseThread) ReadyTime() *Time { return t.readyTime }
func (t *BaseThread) Remaining() *Time { return t.remaining }

// updateReadyTime keeps ready_time current while the thread executes.
func (t *BaseThread) updateReadyTime(currentTime Time) {
	if t.readyTime == nil || t.readyTime.GreaterThan(currentTime) {
		panic("thread ready_time invariant violated")
	}
	t.readyTime = &currentTime
}

// execute drives one slice of plain "run until done or preempted" work,
// respecting the remaining workload budget. runTime nil means "run as much
// as remains" (possibly forever, for infinite-workload threads).
func (t *BaseThread) execute(y *Yielder, currentTime Time, runTime *Time) Time {
	if t.IsFinished() {
		panic("execute called on a finished thread")
	}
	t.updateReadyTime(currentTime)

	if runTime == nil {
		runTime = t.remaining
	}

	next := y.Yield(RequestExecuteReq(runTime))
	currentTime = next.(Time)

	if t.IsFinished() {
		y.Yield(RequestIdleReq())
		// The thread is done; its coroutine goroutine is simply never
		// driven again (the scheduler moves it to the finished chains).
		select {}
	}
	return currentTime
}

// Run is the default worker body: run to completion (or forever, for
// infinite-workload threads), then idle.
func (t *BaseThread) Run(y *Yielder) {
	t.isRunning = true
	currentTime := y.Yield(RequestCurrentTimeReq()).(Time)
	for {
		currentTime = t.execute(y, currentTime, nil)
	}
}

func (t *BaseThread) RunCtxsw(currentTime Time, runTime Time) {
	if LogIndividualRunTimes {
		t.stats.Ctxsw = append(t.stats.Ctxsw, runTime)
	}
	// The switch is charged after the thread last synced its ready_time, so
	// catch up here to keep RunCrunch's ready_time + run_time check valid.
	if t.readyTime != nil {
		t.updateReadyTime(currentTime)
	}
}

func (t *BaseThread) RunBackground(_ Time, _ Time) {
	panic("run_background called on a worker thread")
}

func (t *BaseThread) RunCrunch(currentTime, runTime Time) {
	t.stats.TotalRun = t.stats.TotalRun.Add(runTime)
	if LogIndividualRunTimes {
		last := len(t.stats.Run) - 1
		if last < 0 {
			t.stats.Run = append(t.stats.Run, nil)
			last = 0
		}
		t.stats.Run[last] = append(t.stats.Run[last], runTime)
	}

	nrt := t.readyTime.Add(runTime)
	t.readyTime = &nrt
	if t.readyTime.Cmp(currentTime) != 0 {
		panic("ready_time did not advance by run_time")
	}

	if t.responseUnits != nil {
		ru := t.responseUnits.Sub(runTime)
		t.responseUnits = &ru
		if t.responseUnits.Sign() <= 0 {
			rt := currentTime.Add(*t.responseUnits)
			t.stats.ResponseTime = &rt
			t.responseUnits = nil
		}
	}

	if t.remaining != nil {
		r := t.remaining.Sub(runTime)
		t.remaining = &r
		if t.IsFinished() {
			t.end()
		}
	}
}

func (t *BaseThread) end() {
	if !t.IsFinished() {
		panic("end() called on an unfinished thread")
	}
	ft := *t.readyTime
	t.stats.FinishedTime = &ft
	t.readyTime = nil
}

func (t *BaseThread) Suspend(currentTime Time) {
	if t.isRunning {
		if LogIndividualRunTimes {
			t.stats.Wait = append(t.stats.Wait, nil)
		}
		if t.readyTime != nil {
			rt := t.readyTime.Max(currentTime)
			t.readyTime = &rt
		}
	}
}

func (t *BaseThread) Resume(currentTime Time, returning bool) {
	if t.IsFinished() {
		return
	}
	if t.readyTime == nil {
		panic("resume called on a thread with no ready_time")
	}
	if returning {
		t.updateReadyTime(currentTime)
		return
	}
	if currentTime.GreaterEqual(*t.readyTime) {
		if LogIndividualRunTimes {
			last := len(t.stats.Wait) - 1
			if last < 0 {
				t.stats.Wait = append(t.stats.Wait, nil)
				last = 0
			}
			t.stats.Wait[last] = append(t.stats.Wait[last], currentTime.Sub(*t.readyTime))
			t.stats.Run = append(t.stats.Run, nil)
		}
		ct := currentTime
		t.readyTime = &ct
	}
}

func (t *BaseThread) Finish(_ Time) {
	t.isRunning = false
}

// GetStatistics returns a copy of the thread's statistics, enriched with the
// current waiting time (if the thread is ready but not yet scheduled) and
// its remaining workload.
func (t *BaseThread) GetStatistics(currentTime Time) *ThreadStats {
	stats := t.stats
	if !t.IsFinished() && t.readyTime != nil && currentTime.GreaterEqual(*t.readyTime) {
		w := currentTime.Sub(*t.readyTime)
		stats.Waiting = &w
	}
	if n := len(stats.Wait); n > 0 && len(stats.Wait[n-1]) == 0 {
		stats.Wait = stats.Wait[:n-1]
	}
	stats.Remaining = t.remaining
	return &stats
}

// WorkerThread is a plain thread executing its full workload with no
// special structure. It is the Go name for what the original source calls
// just "Thread" used directly (as opposed to a specialised subclass).
type WorkerThread struct {
	*BaseThread
}

func NewWorkerThread(module *Module, tid string, readyTime Time, units, responseUnits *Time) *WorkerThread {
	return &WorkerThread{BaseThread: NewBaseThread(module, tid, readyTime, units, responseUnits)}
}
