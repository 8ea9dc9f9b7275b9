package schedsim_internal

import "testing"

type fakeCPUView struct {
	uid  string
	time Time
}

func (f fakeCPUView) UID() string       { return f.uid }
func (f fakeCPUView) CurrentTime() Time { return f.time }
func (f fakeCPUView) Chain() *Chain     { return nil }

type recordingSink struct {
	calls []string
}

func (r *recordingSink) InitCore(CPUView) { r.calls = append(r.calls, "init_core") }
func (r *recordingSink) ContextSwitch(CPUView, *int, *int, Time) {
	r.calls = append(r.calls, "context_switch")
}
func (r *recordingSink) ThreadExecute(CPUView, Time) { r.calls = append(r.calls, "thread_execute") }
func (r *recordingSink) ThreadYield(CPUView)         { r.calls = append(r.calls, "thread_yield") }
func (r *recordingSink) CPUIdle(CPUView, Time)       { r.calls = append(r.calls, "cpu_idle") }
func (r *recordingSink) TimerInterrupt(CPUView, int, Time) {
	r.calls = append(r.calls, "timer_interrupt")
}
func (r *recordingSink) ThreadStatistics(map[ThreadKey]*ThreadStats) {
	r.calls = append(r.calls, "thread_statistics")
}
func (r *recordingSink) CPUStatistics([]*CPUStats) { r.calls = append(r.calls, "cpu_statistics") }

func TestMultiSinkFansOutInOrder(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMultiSink(a, b)
	cpu := fakeCPUView{uid: "0", time: NewTimeInt64(1)}

	m.ThreadExecute(cpu, NewTimeInt64(5))
	m.ThreadYield(cpu)

	for _, got := range []*recordingSink{a, b} {
		if want := []string{"thread_execute", "thread_yield"}; !equalStrings(got.calls, want) {
			t.Errorf("expected each sink to receive the same calls in order: got %v, want %v", got.calls, want)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNopSinkDiscards(t *testing.T) {
	cpu := fakeCPUView{uid: "0", time: ZeroTime()}
	var s EventSink = NopSink{}
	s.InitCore(cpu)
	s.ContextSwitch(cpu, nil, nil, ZeroTime())
	s.ThreadExecute(cpu, ZeroTime())
	s.ThreadYield(cpu)
	s.CPUIdle(cpu, ZeroTime())
	s.TimerInterrupt(cpu, 0, ZeroTime())
	s.ThreadStatistics(nil)
	s.CPUStatistics(nil)
}
