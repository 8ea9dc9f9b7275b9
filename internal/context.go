// Context frames and context chains.
//
// A Context wraps one thread's coroutine (its Run body) together with the
// per-frame timer and the pending reply buffer used to hand a resumed chain
// back into a VCPUThread/SchedulerThread's resume_chain request. A Chain is
// a stack of Contexts: each entry is one nested scheduler invocation. The
// bottom (index 0) is whatever thread a module's own scheduler picked out
// of its ready queue -- a worker, or a VCPUThread representing a child
// module; further frames are appended on top as a VCPUThread's resume_chain
// recurses into that child's own scheduler, and so on down the hierarchy.
//
// Grounded on original_source/schedsi/cpu/context.py.

package schedsim_internal

// Context is one frame of a ContextChain.
type Context struct {
	Thread  Thread
	yielder *Yielder
	started bool

	// Timeout is this frame's armed timer deadline, nil if none is armed.
	Timeout *Time

	// buffer holds a reply to inject on the next Execute call instead of
	// the current time -- used to hand a resumed chain back to a
	// resume_chain request.
	buffer any
}

func NewContext(t Thread) *Context {
	return &Context{Thread: t, yielder: NewYielder()}
}

// Execute drives the context's coroutine one step, starting it on first
// call. Returns the Request the coroutine yields.
func (c *Context) Execute(currentTime Time) *Request {
	if !c.started {
		c.started = true
		go c.Thread.Run(c.yielder)
		// The first yield of every Thread.Run body is a current_time
		// request; prime the coroutine to it before replying below.
		c.yielder.Next()
	}
	var reply any = currentTime
	if c.buffer != nil {
		reply = c.buffer
		c.buffer = nil
	}
	return c.yielder.Send(reply)
}

// Reply queues val to be handed to the coroutine on the next Execute call,
// instead of the current time.
func (c *Context) Reply(val any) {
	c.buffer = val
}

// Restart finishes the current thread and resets the context so the next
// Execute call starts a brand new coroutine from scratch. Used when the
// kernel-only-timer CPU policy re-enters the kernel after a timer interrupt.
func (c *Context) Restart(currentTime Time) {
	c.Thread.Finish(currentTime)
	c.yielder = NewYielder()
	c.started = false
	c.buffer = nil
	c.Timeout = nil
}

// Chain is a stack of Contexts representing one nested scheduler
// invocation path, from the outermost frame at index 0 (the kernel's
// SchedulerThread in the Core's chain) up to the most deeply nested
// running thread on top.
type Chain struct {
	contexts       []*Context
	nextTimeoutIdx int
}

// ChainFromThread creates a single-frame Chain wrapping thread.
func ChainFromThread(t Thread) *Chain {
	return &Chain{contexts: []*Context{NewContext(t)}, nextTimeoutIdx: -1}
}

// ChainFromContext creates a single-frame Chain wrapping an existing context.
func ChainFromContext(ctx *Context) *Chain {
	c := &Chain{contexts: []*Context{ctx}, nextTimeoutIdx: -1}
	c.updateTimeout()
	return c
}

func (c *Chain) Len() int { return len(c.contexts) }

// CurrentContext is the top (most deeply nested) context of the chain.
func (c *Chain) CurrentContext() *Context { return c.contexts[len(c.contexts)-1] }

// Top is an alias for CurrentContext.
func (c *Chain) Top() *Context { return c.CurrentContext() }

// Bottom is the thread at the base of the chain (index 0).
func (c *Chain) Bottom() Thread { return c.contexts[0].Thread }

func (c *Chain) ContextAt(idx int) *Context { return c.contexts[idx] }

func (c *Chain) ThreadAt(idx int) Thread { return c.contexts[idx].Thread }

func (c *Chain) updateTimeout() {
	c.nextTimeoutIdx = -1
	var next *Time
	for i, ctx := range c.contexts {
		if ctx.Timeout != nil && (next == nil || ctx.Timeout.LessThan(*next)) {
			t := *ctx.Timeout
			next = &t
			c.nextTimeoutIdx = i
		}
	}
}

// NextTimeout returns the earliest armed timer across the whole chain, or
// nil if none is armed.
func (c *Chain) NextTimeout() *Time {
	if c.nextTimeoutIdx == -1 {
		return nil
	}
	return c.contexts[c.nextTimeoutIdx].Timeout
}

// SetTimer arms (or clears, if timeout is nil) the timer on the frame at
// idx. Negative idx counts from the top, as with Python slicing (-1 is the
// current/top context).
func (c *Chain) SetTimer(timeout *Time, idx int) {
	if idx < 0 {
		idx = len(c.contexts) + idx
	}
	c.contexts[idx].Timeout = timeout
	c.updateTimeout()
}

// AppendChain appends tail's frames on top of this chain, e.g. after a
// resume_chain request adds a new nested invocation.
func (c *Chain) AppendChain(tail *Chain) {
	c.contexts = append(c.contexts, tail.contexts...)
	c.updateTimeout()
}

// Elapse advances every armed timer in the chain by delta (timers may go
// negative; a negative or zero timeout means the timer has fired).
func (c *Chain) Elapse(delta Time) {
	for _, ctx := range c.contexts {
		if ctx.Timeout != nil {
			nt := ctx.Timeout.Sub(delta)
			ctx.Timeout = &nt
		}
	}
	c.updateTimeout()
}

// FindElapsedTimer returns the index of a frame whose timer has fired
// (timeout <= 0), or -1 if none has.
func (c *Chain) FindElapsedTimer() int {
	for i, ctx := range c.contexts {
		if ctx.Timeout != nil && ctx.Timeout.Sign() <= 0 {
			return i
		}
	}
	return -1
}

// Split divides the chain at idx: frames [0,idx) stay in this chain and
// frames [idx,end) are returned as a new tail Chain.
func (c *Chain) Split(idx int) *Chain {
	tailContexts := make([]*Context, len(c.contexts)-idx)
	copy(tailContexts, c.contexts[idx:])
	tail := &Chain{contexts: tailContexts}
	c.contexts = c.contexts[:idx]
	c.updateTimeout()
	tail.updateTimeout()
	return tail
}

// Finish tells every thread in the chain it is being torn down.
func (c *Chain) Finish(currentTime Time) {
	for _, ctx := range c.contexts {
		ctx.Thread.Finish(currentTime)
	}
}

// Suspend tells every thread in the chain it is being set aside, e.g. the
// tail cut off by a split.
func (c *Chain) Suspend(currentTime Time) {
	for _, ctx := range c.contexts {
		ctx.Thread.Suspend(currentTime)
	}
}

// Resume tells every thread in the chain it is (re)starting to run, e.g.
// after being appended or handed back by a split.
func (c *Chain) Resume(currentTime Time, returning bool) {
	for _, ctx := range c.contexts {
		ctx.Thread.Resume(currentTime, returning)
	}
}

// RunBackground records background run-time for every thread in the chain
// except the current (top) one, which is the one actually executing.
func (c *Chain) RunBackground(currentTime, delta Time) {
	for i, ctx := range c.contexts {
		if i == len(c.contexts)-1 {
			continue
		}
		ctx.Thread.RunBackground(currentTime, delta)
	}
}
