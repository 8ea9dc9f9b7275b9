// EventSink: where the running simulation reports what it is doing, so a
// caller can observe it without instrumenting the scheduling code itself.
//
// Grounded on original_source/schedsi/log/log.go (the Log ABC's method set)
// and original_source/schedsi/log/multiplexer.go (fan-out). LogSink is
// built on the same logrus.Entry-per-component convention as
// internal/logger.go's CollectableLogger.

package schedsim_internal

import "github.com/sirupsen/logrus"

// CPUView exposes read-only Core state to an EventSink callback: spec.md
// 6's cpu_view, carrying uid, current_time, and the active context chain (a
// replay tool reconstructs the evolving chain across context_switch events
// from this).
type CPUView interface {
	UID() string
	CurrentTime() Time
	Chain() *Chain
}

// CPUStats accumulates one CPU's counters across a run, reported once via
// EventSink.CPUStatistics when the run ends.
type CPUStats struct {
	UID string

	IdleTime   Time
	CrunchTime Time

	ContextSwitches   int
	ContextSwitchCost Time

	TimerInterrupts int
	TimerDelay      Time
}

func newCPUStats(uid string) *CPUStats {
	return &CPUStats{UID: uid}
}

// EventSink receives every reportable occurrence during a run. Implementations
// must not block the caller for long, since every hook is invoked
// synchronously from inside the scheduling loop.
//
// Grounded on spec.md 6's 8-method sink interface.
type EventSink interface {
	InitCore(cpu CPUView)
	// ContextSwitch reports that the active top-of-chain thread changed.
	// Exactly one of splitIndex/appendIndex is non-nil: splitIndex when the
	// switch happened by bubbling up to an ancestor (a split), appendIndex
	// when it happened by descending into a freshly appended chain.
	ContextSwitch(cpu CPUView, splitIndex, appendIndex *int, cost Time)
	ThreadExecute(cpu CPUView, runtime Time)
	ThreadYield(cpu CPUView)
	CPUIdle(cpu CPUView, idleTime Time)
	TimerInterrupt(cpu CPUView, frameIndex int, delay Time)
	ThreadStatistics(stats map[ThreadKey]*ThreadStats)
	CPUStatistics(stats []*CPUStats)
}

// NopSink discards every event; the default when no observability is
// requested.
type NopSink struct{}

func (NopSink) InitCore(CPUView)                            {}
func (NopSink) ContextSwitch(CPUView, *int, *int, Time)      {}
func (NopSink) ThreadExecute(CPUView, Time)                  {}
func (NopSink) ThreadYield(CPUView)                          {}
func (NopSink) CPUIdle(CPUView, Time)                        {}
func (NopSink) TimerInterrupt(CPUView, int, Time)            {}
func (NopSink) ThreadStatistics(map[ThreadKey]*ThreadStats)  {}
func (NopSink) CPUStatistics([]*CPUStats)                    {}

// LogSink reports every event as a structured log line through a
// CollectableLogger-backed logrus.Entry.
type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(log *logrus.Entry) *LogSink { return &LogSink{log: log} }

// NewDefaultLogSink builds a LogSink on the package's standard "sim" logging
// component.
func NewDefaultLogSink() *LogSink { return NewLogSink(NewCompLogger("sim")) }

func (s *LogSink) withCPU(cpu CPUView) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{"cpu": cpu.UID(), "time": cpu.CurrentTime().String()})
}

func (s *LogSink) InitCore(cpu CPUView) { s.withCPU(cpu).Info("init_core") }

func (s *LogSink) ContextSwitch(cpu CPUView, splitIndex, appendIndex *int, cost Time) {
	fields := logrus.Fields{"cost": cost.String()}
	switch {
	case splitIndex != nil:
		fields["split_index"] = *splitIndex
	case appendIndex != nil:
		fields["appendix"] = *appendIndex
	}
	s.withCPU(cpu).WithFields(fields).Info("context_switch")
}

func (s *LogSink) ThreadExecute(cpu CPUView, runtime Time) {
	s.withCPU(cpu).WithField("runtime", runtime.String()).Info("thread_execute")
}

func (s *LogSink) ThreadYield(cpu CPUView) { s.withCPU(cpu).Info("thread_yield") }

func (s *LogSink) CPUIdle(cpu CPUView, idleTime Time) {
	s.withCPU(cpu).WithField("idle_time", idleTime.String()).Info("cpu_idle")
}

func (s *LogSink) TimerInterrupt(cpu CPUView, frameIndex int, delay Time) {
	s.withCPU(cpu).WithFields(logrus.Fields{"frame_index": frameIndex, "delay": delay.String()}).Info("timer_interrupt")
}

func (s *LogSink) ThreadStatistics(stats map[ThreadKey]*ThreadStats) {
	s.log.WithField("threads", len(stats)).Info("thread_statistics")
}

func (s *LogSink) CPUStatistics(stats []*CPUStats) {
	s.log.WithField("cpus", len(stats)).Info("cpu_statistics")
}

// MultiSink fans every event out to every wrapped sink, in order.
type MultiSink struct {
	sinks []EventSink
}

func NewMultiSink(sinks ...EventSink) *MultiSink { return &MultiSink{sinks: sinks} }

func (m *MultiSink) InitCore(cpu CPUView) {
	for _, s := range m.sinks {
		s.InitCore(cpu)
	}
}

func (m *MultiSink) ContextSwitch(cpu CPUView, splitIndex, appendIndex *int, cost Time) {
	for _, s := range m.sinks {
		s.ContextSwitch(cpu, splitIndex, appendIndex, cost)
	}
}

func (m *MultiSink) ThreadExecute(cpu CPUView, runtime Time) {
	for _, s := range m.sinks {
		s.ThreadExecute(cpu, runtime)
	}
}

func (m *MultiSink) ThreadYield(cpu CPUView) {
	for _, s := range m.sinks {
		s.ThreadYield(cpu)
	}
}

func (m *MultiSink) CPUIdle(cpu CPUView, idleTime Time) {
	for _, s := range m.sinks {
		s.CPUIdle(cpu, idleTime)
	}
}

func (m *MultiSink) TimerInterrupt(cpu CPUView, frameIndex int, delay Time) {
	for _, s := range m.sinks {
		s.TimerInterrupt(cpu, frameIndex, delay)
	}
}

func (m *MultiSink) ThreadStatistics(stats map[ThreadKey]*ThreadStats) {
	for _, s := range m.sinks {
		s.ThreadStatistics(stats)
	}
}

func (m *MultiSink) CPUStatistics(stats []*CPUStats) {
	for _, s := range m.sinks {
		s.CPUStatistics(stats)
	}
}
