// Core: the single physical CPU driving a module hierarchy's root
// scheduler, dispatching its current_time/execute/idle/timer/resume_chain
// requests and accounting context-switch overhead.
//
// Grounded on original_source/schedsi/cpu/core.go. This simulator only
// ever drives one Core (see spec.md's Non-goals on multi-core
// parallelism); additional VCPUThreads give a module hierarchy internal
// concurrency in the scheduling sense (several independent ready queues)
// without needing more than one physical timeline to drive them, since at
// any instant exactly one chain of nested contexts is "the" active one.

package schedsim_internal

import "fmt"

func minOptionalTime(a, b *Time) *Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.LessEqual(*b):
		return a
	default:
		return b
	}
}

// Core drives one module hierarchy's root (kernel) scheduler to
// completion or until a time horizon is reached.
type Core struct {
	uid         string
	currentTime Time
	chain       *Chain

	moduleCtxswCost Time
	threadCtxswCost Time
	sink            EventSink
	stats           *CPUStats
	initReported    bool

	// localTimerScheduling selects between the two CPU policies: if true,
	// any frame in the chain may hold its own timer; if false, only the
	// bottom (kernel) frame may, and every timer interrupt forces a full
	// re-entry into the kernel scheduler.
	localTimerScheduling bool

	lastThread Thread
	lastModule *Module

	// pendingSplitIdx/pendingAppendIdx record which chain mutation is in
	// flight so the next thread-identity change detected in
	// dispatchExecute can be reported as the right kind of context_switch.
	// Consumed (and cleared) by the very next dispatchExecute call.
	pendingSplitIdx  *int
	pendingAppendIdx *int

	finished bool
}

// NewCore creates a Core that will drive kernel's own SchedulerThread from
// time zero, under the given CPU timer policy.
func NewCore(kernel *Module, moduleCtxswCost, threadCtxswCost Time, localTimerScheduling bool, sink EventSink) *Core {
	if sink == nil {
		sink = NopSink{}
	}
	const uid = "0"
	return &Core{
		uid:                  uid,
		chain:                ChainFromThread(kernel.Scheduler),
		moduleCtxswCost:      moduleCtxswCost,
		threadCtxswCost:      threadCtxswCost,
		localTimerScheduling: localTimerScheduling,
		sink:                 sink,
		stats:                newCPUStats(uid),
	}
}

// UID identifies this CPU among others reported to an EventSink. This
// simulator only ever drives one Core (spec.md's Non-goals exclude
// multi-core parallelism), so it is always "0".
func (c *Core) UID() string { return c.uid }

// CurrentTime is how far the simulation has progressed.
func (c *Core) CurrentTime() Time { return c.currentTime }

// Chain exposes the currently active chain of nested contexts, read-only by
// convention (an EventSink must not mutate it).
func (c *Core) Chain() *Chain { return c.chain }

// Finished reports whether the driven hierarchy has permanently run out of
// work (every module's scheduler has gone idle forever).
func (c *Core) Finished() bool { return c.finished }

// Statistics returns this CPU's accumulated counters so far.
func (c *Core) Statistics() *CPUStats {
	cp := *c.stats
	return &cp
}

// Run drives the Core until either it finishes or current time reaches
// until, whichever comes first.
func (c *Core) Run(until Time) {
	if !c.initReported {
		c.sink.InitCore(c)
		c.initReported = true
	}
	for !c.finished && c.currentTime.LessThan(until) {
		ctx := c.chain.CurrentContext()
		req := ctx.Execute(c.currentTime)
		c.dispatch(ctx, req, until)
	}
}

// advanceBackground moves currentTime forward by delta, charging
// background run time to every non-top frame and decrementing every armed
// timer in the chain.
func (c *Core) advanceBackground(delta Time) {
	if delta.Sign() < 0 {
		panic("negative time advance")
	}
	if delta.IsZero() {
		return
	}
	newTime := c.currentTime.Add(delta)
	c.chain.RunBackground(newTime, delta)
	c.chain.Elapse(delta)
	c.currentTime = newTime
}

// splitAndReturnToAncestor hands everything at index idx and above back up
// to the ancestor frame at idx-1 as the reply to that ancestor's pending
// resume_chain request. Used both for a natural idle/finish bubbling up and
// for a preemption once an ancestor's timer elapses.
func (c *Core) splitAndReturnToAncestor(idx int) {
	c.pendingSplitIdx, c.pendingAppendIdx = &idx, nil
	tail := c.chain.Split(idx)
	tail.Suspend(c.currentTime)
	ancestor := c.chain.CurrentContext()
	ancestor.Reply(tail)
	ancestor.Thread.Resume(c.currentTime, true)
}

// kernelOnlyTimerInterrupt is the kernel-only-timer policy's response to the
// kernel's own timer elapsing while a frame above it is on top: the whole
// tail above the kernel is
// torn down (it cannot be preserved for a later resume without per-frame
// timers to express partial suspension) and the kernel's own coroutine is
// restarted from scratch, re-entering its scheduler fresh.
func (c *Core) kernelOnlyTimerInterrupt() {
	const splitIdx = 1
	c.pendingSplitIdx, c.pendingAppendIdx = intPtr(splitIdx), nil
	tail := c.chain.Split(splitIdx)
	tail.Suspend(c.currentTime)
	tail.Finish(c.currentTime)
	kernelCtx := c.chain.CurrentContext()
	kernelCtx.Restart(c.currentTime)
}

func intPtr(i int) *int { return &i }

func (c *Core) dispatch(ctx *Context, req *Request, until Time) {
	switch req.Type {
	case RequestCurrentTime:
		// No state change; the coroutine just wanted to know the time,
		// already supplied as the reply to whatever got us here.
		next := ctx.Execute(c.currentTime)
		c.dispatch(ctx, next, until)

	case RequestTimer:
		idx := c.indexOf(ctx)
		delta := req.TimerArg()
		if !c.localTimerScheduling && idx != 0 && delta != nil {
			panic(fmt.Sprintf("timer request from non-kernel frame %d under the kernel-only-timer policy", idx))
		}
		c.chain.SetTimer(delta, idx)
		next := ctx.Execute(c.currentTime)
		c.dispatch(ctx, next, until)

	case RequestResumeChain:
		sub := req.ChainArg()
		if !c.localTimerScheduling && sub.Len() != 1 {
			panic("resume_chain with a chain longer than one frame under the kernel-only-timer policy")
		}
		appendIdx := c.chain.Len()
		c.pendingSplitIdx, c.pendingAppendIdx = nil, &appendIdx
		c.chain.AppendChain(sub)
		sub.Resume(c.currentTime, false)
		newTop := c.chain.CurrentContext()
		next := newTop.Execute(c.currentTime)
		c.dispatch(newTop, next, until)

	case RequestIdle:
		idx := c.indexOf(ctx)
		if idx > 0 {
			// A non-root frame giving up the CPU (finished, or voluntarily
			// idling) bubbles up to its ancestor; report it as the thread's
			// own yield. The top-level scheduler going idle (idx == 0,
			// below) isn't a thread yielding, it's the CPU itself running
			// out of work, reported instead via cpu_idle or not at all if
			// permanently done.
			c.sink.ThreadYield(c)
			c.splitAndReturnToAncestor(idx)
			newTop := c.chain.CurrentContext()
			next := newTop.Execute(c.currentTime)
			c.dispatch(newTop, next, until)
			return
		}
		nt := c.chain.NextTimeout()
		if nt == nil {
			c.finished = true
			return
		}
		delta := *nt
		if limit := until.Sub(c.currentTime); delta.GreaterThan(limit) {
			delta = limit
		}
		if delta.Sign() <= 0 {
			return
		}
		c.advanceBackground(delta)
		c.stats.IdleTime = c.stats.IdleTime.Add(delta)
		c.sink.CPUIdle(c, delta)
		next := ctx.Execute(c.currentTime)
		c.dispatch(ctx, next, until)

	case RequestExecute:
		c.dispatchExecute(ctx, req, until)

	default:
		panic("unhandled request type")
	}
}

func (c *Core) dispatchExecute(ctx *Context, req *Request, until Time) {
	topThread := ctx.Thread

	splitIdx, appendIdx := c.pendingSplitIdx, c.pendingAppendIdx
	c.pendingSplitIdx, c.pendingAppendIdx = nil, nil

	if topThread != c.lastThread {
		ctxsw := c.threadCtxswCost
		if c.lastModule != topThread.GetModule() {
			ctxsw = ctxsw.Add(c.moduleCtxswCost)
		}
		if ctxsw.Sign() > 0 {
			if limit := until.Sub(c.currentTime); ctxsw.GreaterThan(limit) {
				ctxsw = limit
			}
			if ctxsw.Sign() > 0 {
				c.advanceBackground(ctxsw)
				topThread.RunCtxsw(c.currentTime, ctxsw)
			}
		}
		c.lastThread = topThread
		c.lastModule = topThread.GetModule()
		c.stats.ContextSwitches++
		c.stats.ContextSwitchCost = c.stats.ContextSwitchCost.Add(ctxsw)
		c.sink.ContextSwitch(c, splitIdx, appendIdx, ctxsw)
	}

	requested := req.ExecuteArg()
	limit := minOptionalTime(requested, c.chain.NextTimeout())
	untilCap := until.Sub(c.currentTime)
	limit = minOptionalTime(limit, &untilCap)
	if limit == nil || limit.Sign() < 0 {
		panic("execute limit resolved to an invalid duration")
	}
	run := *limit

	if run.Sign() > 0 {
		c.advanceBackground(run)
		topThread.RunCrunch(c.currentTime, run)
		c.stats.CrunchTime = c.stats.CrunchTime.Add(run)
		c.sink.ThreadExecute(c, run)
	}

	if !c.currentTime.LessThan(until) && run.Sign() == 0 {
		// Horizon reached exactly at a zero-length slice: nothing more to
		// do this Run call; leave the coroutine blocked to resume later.
		return
	}

	idx := c.chain.FindElapsedTimer()
	topIdx := c.chain.Len() - 1
	if idx != -1 && idx < topIdx {
		delay := ZeroTime().Sub(*c.chain.ContextAt(idx).Timeout)
		c.stats.TimerInterrupts++
		c.stats.TimerDelay = c.stats.TimerDelay.Add(delay)
		c.sink.TimerInterrupt(c, idx, delay)
		if c.localTimerScheduling {
			c.splitAndReturnToAncestor(idx + 1)
		} else {
			// Only the kernel (idx 0) may hold a timer under this policy,
			// so an elapsed sub-frame timer can only be the kernel's own.
			c.kernelOnlyTimerInterrupt()
		}
		newTop := c.chain.CurrentContext()
		next := newTop.Execute(c.currentTime)
		c.dispatch(newTop, next, until)
		return
	}

	if !c.currentTime.LessThan(until) {
		return
	}
	next := ctx.Execute(c.currentTime)
	c.dispatch(ctx, next, until)
}

// indexOf finds ctx's position in the active chain.
func (c *Core) indexOf(ctx *Context) int {
	for i := 0; i < c.chain.Len(); i++ {
		if c.chain.ContextAt(i) == ctx {
			return i
		}
	}
	panic("context not found in active chain")
}
