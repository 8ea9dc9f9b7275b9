package schedsim_internal

import "testing"

func newWaitingWorker(tid string, readyAt int64) *Chain {
	units := NewTimeInt64(10)
	w := NewWorkerThread(nil, tid, NewTimeInt64(readyAt), &units, nil)
	return ChainFromThread(w)
}

func TestMoveReadyFromWaiting(t *testing.T) {
	var ready, waiting []*Chain
	waiting = append(waiting,
		newWaitingWorker("a", 0),
		newWaitingWorker("b", 5),
		newWaitingWorker("c", 10),
	)

	moveReadyFromWaiting(NewTimeInt64(5), &ready, &waiting)

	if got, want := len(ready), 2; got != want {
		t.Fatalf("ready: got %d entries, want %d", got, want)
	}
	if got, want := len(waiting), 1; got != want {
		t.Fatalf("waiting: got %d entries, want %d", got, want)
	}
	if got, want := waiting[0].Bottom().GetTid(), "c"; got != want {
		t.Errorf("remaining waiting thread: got %s, want %s", got, want)
	}
}

func TestGetNextWaitingDefault(t *testing.T) {
	if got := getNextWaitingDefault(nil); got != nil {
		t.Fatalf("empty input: got %v, want nil", got)
	}

	waiting := []*Chain{
		newWaitingWorker("late", 20),
		newWaitingWorker("early", 3),
		newWaitingWorker("mid", 10),
	}

	next := getNextWaitingDefault(waiting)
	if next == nil {
		t.Fatal("expected a non-nil next waiting chain")
	}
	if got, want := next.Bottom().GetTid(), "early"; got != want {
		t.Errorf("next waiting: got %s, want %s", got, want)
	}
}

// A PeriodicWorkThread that has just exhausted its burst quota is not
// finished, but its ready_time moves into the future: classifyLastChain
// must route it to waiting, not leave it in ready to be re-selected before
// its next activation.
func TestClassifyLastChainRoutesExhaustedBurstToWaiting(t *testing.T) {
	units := NewTimeInt64(100)
	pt := NewPeriodicWorkThread(nil, "p", ZeroTime(), &units, nil, NewTimeInt64(10), NewTimeInt64(2))
	burstLeft := NewTimeInt64(2)
	pt.currentBurstLeft = &burstLeft

	pt.RunCrunch(NewTimeInt64(2), NewTimeInt64(2))

	if pt.IsFinished() {
		t.Fatal("expected the thread to still have remaining work")
	}
	rt := pt.ReadyTime()
	if rt == nil || !rt.GreaterThan(ZeroTime()) {
		t.Fatalf("expected a future ready_time after exhausting the burst, got %v", rt)
	}

	chain := ChainFromThread(pt)
	if got := classifyLastChain(chain, ZeroTime()); got != lastChainWaiting {
		t.Errorf("classifyLastChain: got %v, want lastChainWaiting", got)
	}
}

func TestThreadKeyString(t *testing.T) {
	k := ThreadKey{Module: "kernel", Tid: "2"}
	if got, want := k.String(), "kernel/2"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}
