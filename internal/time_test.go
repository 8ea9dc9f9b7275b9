package schedsim_internal

import "testing"

func TestTimeArithmetic(t *testing.T) {
	a := NewTimeFrac(3, 2)
	b := NewTimeInt64(1)

	if got, want := a.Add(b).String(), "5/2"; got != want {
		t.Errorf("Add: got %s, want %s", got, want)
	}
	if got, want := a.Sub(b).String(), "1/2"; got != want {
		t.Errorf("Sub: got %s, want %s", got, want)
	}
	if got, want := a.Mul(b).String(), "3/2"; got != want {
		t.Errorf("Mul: got %s, want %s", got, want)
	}
	if got, want := a.MulInt(2).String(), "3"; got != want {
		t.Errorf("MulInt: got %s, want %s", got, want)
	}
	if got, want := NewTimeInt64(7).DivInt(2).String(), "7/2"; got != want {
		t.Errorf("DivInt: got %s, want %s", got, want)
	}
}

func TestTimeComparisons(t *testing.T) {
	lo := NewTimeInt64(1)
	hi := NewTimeInt64(2)

	if !lo.LessThan(hi) || hi.LessThan(lo) {
		t.Error("LessThan mismatch")
	}
	if !lo.LessEqual(lo) || !lo.LessEqual(hi) {
		t.Error("LessEqual mismatch")
	}
	if !hi.GreaterThan(lo) || lo.GreaterThan(hi) {
		t.Error("GreaterThan mismatch")
	}
	if lo.Min(hi).Cmp(lo) != 0 {
		t.Error("Min mismatch")
	}
	if lo.Max(hi).Cmp(hi) != 0 {
		t.Error("Max mismatch")
	}
	if !ZeroTime().IsZero() {
		t.Error("ZeroTime should be zero")
	}
	if NewTimeInt64(-1).Sign() >= 0 {
		t.Error("Sign should be negative")
	}
}

func TestParseTime(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "3", want: "3"},
		{in: "3/2", want: "3/2"},
		{in: "1.5", want: "3/2"},
		{in: "not-a-number", wantErr: true},
	} {
		got, err := ParseTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTime(%q): want error, got nil", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Errorf("ParseTime(%q): got %s, want %s", tc.in, got.String(), tc.want)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	if got, want := NewTimeInt64(7).FloorDiv(NewTimeInt64(2)), int64(3); got != want {
		t.Errorf("FloorDiv: got %d, want %d", got, want)
	}
}

func TestMinTime(t *testing.T) {
	got := MinTime(NewTimeInt64(3), NewTimeInt64(1), NewTimeInt64(2))
	if got.Cmp(NewTimeInt64(1)) != 0 {
		t.Errorf("MinTime: got %s, want 1", got.String())
	}
}
