package schedsim_internal

import "testing"

// buildFCFSKernel wires a single-module hierarchy with n workers of the
// given size scheduled FCFS, ready from time zero.
func buildFCFSKernel(t *testing.T, unitsPerWorker int64, n int) *Module {
	t.Helper()
	kernel := NewModule("kernel", nil, NewFCFS(nil, ZeroTime()))
	for i := 0; i < n; i++ {
		units := NewTimeInt64(unitsPerWorker)
		kernel.AddThread(NewWorkerThread(kernel, string(rune('0'+i)), ZeroTime(), &units, nil))
	}
	return kernel
}

func TestWorldRunFCFSToCompletion(t *testing.T) {
	kernel := buildFCFSKernel(t, 5, 3)
	w := NewWorld(kernel, ZeroTime(), ZeroTime(), true, nil)

	stats, err := w.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !stats.Finished {
		t.Fatal("Run: expected the hierarchy to report finished")
	}
	if got, want := stats.FinalTime, NewTimeInt64(15); got.Cmp(want) != 0 {
		t.Errorf("FinalTime: got %s, want %s (3 workers * 5 units, FCFS, no ctxsw cost)", got.String(), want.String())
	}
	if got, want := len(stats.Threads), 3; got != want {
		t.Fatalf("Threads: got %d entries, want %d", got, want)
	}
	for tid, ts := range stats.Threads {
		if ts.FinishedTime == nil {
			t.Errorf("thread %v: expected a finished time", tid)
		}
	}
}

func TestWorldRunHonorsHorizon(t *testing.T) {
	kernel := buildFCFSKernel(t, 100, 1)
	w := NewWorld(kernel, ZeroTime(), ZeroTime(), true, nil)

	horizon := NewTimeInt64(10)
	stats, err := w.Run(&horizon)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Finished {
		t.Fatal("Run: did not expect the hierarchy to finish before the horizon")
	}
	if got := stats.FinalTime; got.Cmp(horizon) != 0 {
		t.Errorf("FinalTime: got %s, want the horizon %s", got.String(), horizon.String())
	}
}

func TestWorldRunChargesContextSwitchCost(t *testing.T) {
	kernel := buildFCFSKernel(t, 5, 2)
	w := NewWorld(kernel, ZeroTime(), NewTimeInt64(1), true, nil)

	stats, err := w.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 2 workers * 5 units of work, plus a thread-switch cost of 1 charged
	// on each worker's first execute request (including the very first).
	if got, want := stats.FinalTime, NewTimeInt64(12); got.Cmp(want) != 0 {
		t.Errorf("FinalTime: got %s, want %s", got.String(), want.String())
	}
}

// TestKernelOnlyTimerRoundRobinCompletes exercises the kernel-only-timer CPU
// policy's interrupt path: the kernel's own round-robin timer (the only
// timer allowed under this policy) repeatedly tears down and restarts the
// kernel's scheduling coroutine to preempt whichever worker is running.
func TestKernelOnlyTimerRoundRobinCompletes(t *testing.T) {
	kernel := NewModule("kernel", nil, NewRoundRobin(nil, NewTimeInt64(5)))
	units0, units1 := NewTimeInt64(8), NewTimeInt64(8)
	kernel.AddThread(NewWorkerThread(kernel, "0", ZeroTime(), &units0, nil))
	kernel.AddThread(NewWorkerThread(kernel, "1", ZeroTime(), &units1, nil))

	w := NewWorld(kernel, ZeroTime(), ZeroTime(), false, nil)
	stats, err := w.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !stats.Finished {
		t.Fatal("Run: expected both round-robin workers to eventually finish")
	}
	if got, want := stats.FinalTime, NewTimeInt64(16); got.Cmp(want) != 0 {
		t.Errorf("FinalTime: got %s, want %s (2 workers * 8 units, no ctxsw cost)", got.String(), want.String())
	}
	for tid, ts := range stats.Threads {
		if ts.FinishedTime == nil {
			t.Errorf("thread %v: expected a finished time", tid)
		}
	}
}

// TestWorldRunConservesTime exercises the universal Conservation property
// (idle + crunch + context-switch-cost time must sum to the run's total
// elapsed time): two workers paying a context-switch cost of 1 each, with
// no idle time since the kernel has continuous work until both finish.
func TestWorldRunConservesTime(t *testing.T) {
	kernel := buildFCFSKernel(t, 5, 2)
	w := NewWorld(kernel, ZeroTime(), NewTimeInt64(1), true, nil)

	stats, err := w.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := len(stats.CPUs), 1; got != want {
		t.Fatalf("CPUs: got %d entries, want %d", got, want)
	}
	cpu := stats.CPUs[0]
	sum := cpu.IdleTime.Add(cpu.CrunchTime).Add(cpu.ContextSwitchCost)
	if sum.Cmp(stats.FinalTime) != 0 {
		t.Errorf("idle+crunch+ctxsw-cost: got %s, want FinalTime %s", sum.String(), stats.FinalTime.String())
	}
	if got, want := cpu.ContextSwitches, 2; got != want {
		t.Errorf("ContextSwitches: got %d, want %d (one per worker)", got, want)
	}
}

// TestWorldRunReportsSinkSequence runs spec.md's Scenario S1 setup (a
// round-robin worker preempted under the kernel-only-timer policy) and
// checks that the sink sees init_core first and exactly one thread_yield,
// at the worker's finish (not two -- an earlier draft double-reported
// yield on the finishing path).
func TestWorldRunReportsSinkSequence(t *testing.T) {
	sink := &recordingSink{}
	kernel := NewModule("kernel", nil, NewRoundRobin(nil, NewTimeInt64(5)))
	units := NewTimeInt64(8)
	kernel.AddThread(NewWorkerThread(kernel, "0", ZeroTime(), &units, nil))

	w := NewWorld(kernel, ZeroTime(), ZeroTime(), false, sink)
	if _, err := w.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.calls) == 0 || sink.calls[0] != "init_core" {
		t.Fatalf("expected init_core as the first event, got %v", sink.calls)
	}
	yields := 0
	for _, c := range sink.calls {
		if c == "thread_yield" {
			yields++
		}
	}
	if yields != 1 {
		t.Errorf("thread_yield: got %d, want exactly 1 (at the worker's finish)", yields)
	}
}

// TestKernelOnlyTimerRejectsNestedTimer checks that a non-kernel frame
// arming its own timer is rejected outright under the kernel-only-timer
// policy, rather than silently misbehaving.
func TestKernelOnlyTimerRejectsNestedTimer(t *testing.T) {
	kernel := NewModule("kernel", nil, NewFCFS(nil, ZeroTime()))
	child := AddModule(kernel, "vm0", NewRoundRobin(nil, NewTimeInt64(3)))
	units := NewTimeInt64(10)
	child.AddThread(NewWorkerThread(child, "0", ZeroTime(), &units, nil))
	kernel.AddThread(NewVCPUThread(kernel, "0", child))

	w := NewWorld(kernel, ZeroTime(), ZeroTime(), false, nil)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic: a nested scheduler armed its own timer under the kernel-only-timer policy")
		}
	}()
	w.Run(nil)
}
