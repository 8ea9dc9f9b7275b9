// World: the top-level handle to a constructed module hierarchy and the
// Core driving it.
//
// Grounded on original_source/schedsi/world.go.

package schedsim_internal

// RunStatistics summarizes one completed (or horizon-truncated) run.
type RunStatistics struct {
	FinalTime Time
	Finished  bool
	Threads   map[ThreadKey]*ThreadStats
	CPUs      []*CPUStats
}

// World owns the kernel module hierarchy and the Core driving it.
type World struct {
	Kernel *Module
	core   *Core
	sink   EventSink
}

// NewWorld wires kernel up to a Core. ctxswCosts are the per-context-switch
// overheads charged whenever the running thread (and, separately, its
// owning module) changes. localTimerScheduling selects the CPU timer
// policy: true lets any frame hold its own timer, false restricts timers to
// the kernel frame and forces a full scheduler re-entry on every interrupt.
func NewWorld(kernel *Module, moduleCtxswCost, threadCtxswCost Time, localTimerScheduling bool, sink EventSink) *World {
	if sink == nil {
		sink = NopSink{}
	}
	return &World{Kernel: kernel, core: NewCore(kernel, moduleCtxswCost, threadCtxswCost, localTimerScheduling, sink), sink: sink}
}

// SetSink replaces the EventSink the World (and the Core driving it) report
// to. Useful when a hierarchy is built by a HierarchyBuilderFunc that has no
// sink of its own to wire in -- see Run.
func (w *World) SetSink(sink EventSink) {
	if sink == nil {
		sink = NopSink{}
	}
	w.sink = sink
	w.core.sink = sink
}

// Run drives the simulation from wherever it left off up to until (nil
// means "until every core goes idle forever"), and reports final statistics
// gathered across every module in the hierarchy, both returned to the
// caller and reported to the EventSink via thread_statistics/cpu_statistics.
func (w *World) Run(until *Time) (*RunStatistics, error) {
	horizon := MaxTime()
	if until != nil {
		horizon = *until
	}
	w.core.Run(horizon)

	stats := &RunStatistics{
		FinalTime: w.core.CurrentTime(),
		Finished:  w.core.Finished(),
		Threads:   make(map[ThreadKey]*ThreadStats),
		CPUs:      []*CPUStats{w.core.Statistics()},
	}
	w.collectStatistics(w.Kernel, stats.Threads)
	w.sink.ThreadStatistics(stats.Threads)
	w.sink.CPUStatistics(stats.CPUs)
	return stats, nil
}

func (w *World) collectStatistics(m *Module, out map[ThreadKey]*ThreadStats) {
	for k, v := range m.Scheduler.GetThreadStatistics(w.core.CurrentTime()) {
		out[k] = v
	}
	for _, child := range m.children {
		w.collectStatistics(child, out)
	}
}
