// Coroutine emulation.
//
// Go has no first-class generators, and spec.md's own Design Notes flag the
// fallback as "explicit state machines" for a systems language with no such
// feature. The nested thread -> scheduler -> addon generator composition in
// the original source is deep enough that hand-written state machines for
// every layer would balloon in complexity; a goroutine paired with a pair of
// unbuffered channels is a closer, more idiomatic match; goroutine
// send/receive *is* the "yield a value, await a reply" contract Python
// generators implement, and Go is built around exactly this primitive. See
// SPEC_FULL.md section 5 and DESIGN.md for the rationale.

package schedsim_internal

// Yielder is the driver-facing half of a coroutine. The coroutine body runs
// as a goroutine and calls Yield to suspend itself and hand a Request to the
// driver; the driver calls Next/Send to prime/resume it and collect the next
// Request.
type Yielder struct {
	toCoroutine   chan any
	fromCoroutine chan *Request
}

func NewYielder() *Yielder {
	return &Yielder{
		toCoroutine:   make(chan any),
		fromCoroutine: make(chan *Request),
	}
}

// Yield is called from within the coroutine goroutine: it hands req to the
// driver and blocks until the driver resumes it with a reply.
func (y *Yielder) Yield(req *Request) any {
	y.fromCoroutine <- req
	return <-y.toCoroutine
}

// Next blocks until the coroutine yields its first Request. It must be
// called exactly once, immediately after starting the coroutine goroutine,
// before any call to Send.
func (y *Yielder) Next() *Request {
	return <-y.fromCoroutine
}

// Send resumes the coroutine with reply and blocks until it yields its next
// Request.
func (y *Yielder) Send(reply any) *Request {
	y.toCoroutine <- reply
	return <-y.fromCoroutine
}
