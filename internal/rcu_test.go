package schedsim_internal

import "testing"

func TestRCUCopyIsIndependent(t *testing.T) {
	r := NewRCU(NewSchedulerData())

	copy := r.Copy()
	data := copy.Data.(*SchedulerData)
	data.LastIdx = 7

	live := r.Read().(*SchedulerData)
	if live.LastIdx == 7 {
		t.Fatal("mutating a copy leaked into the live data")
	}
}

func TestRCUUpdateSucceedsWithoutRace(t *testing.T) {
	r := NewRCU(NewSchedulerData())

	copy := r.Copy()
	copy.Data.(*SchedulerData).LastIdx = 3

	if !r.Update(copy) {
		t.Fatal("Update: expected success with no intervening writer")
	}
	if got := r.Read().(*SchedulerData).LastIdx; got != 3 {
		t.Errorf("LastIdx: got %d, want 3", got)
	}
}

func TestRCUUpdateFailsAfterConcurrentApply(t *testing.T) {
	r := NewRCU(NewSchedulerData())

	copy := r.Copy()
	copy.Data.(*SchedulerData).LastIdx = 3

	r.Apply(func(d any) { d.(*SchedulerData).LastIdx = 9 })

	if r.Update(copy) {
		t.Fatal("Update: expected failure, the live data moved on since Copy")
	}
	if got := r.Read().(*SchedulerData).LastIdx; got != 9 {
		t.Errorf("LastIdx: got %d, want 9 (the Apply's write, not the stale Update)", got)
	}
}

func TestRCUUpdateAgainstWrongCellPanics(t *testing.T) {
	a := NewRCU(NewSchedulerData())
	b := NewRCU(NewSchedulerData())

	copy := a.Copy()

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic updating b with a's copy")
		}
	}()
	b.Update(copy)
}

func TestRCULook(t *testing.T) {
	r := NewRCU(NewSchedulerData())
	r.Apply(func(d any) { d.(*SchedulerData).LastIdx = 5 })

	got := r.Look(func(d any) any { return d.(*SchedulerData).LastIdx })
	if got != 5 {
		t.Errorf("Look: got %v, want 5", got)
	}
}
