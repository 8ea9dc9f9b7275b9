// Exact rational virtual time.
//
// Every duration and timestamp in the simulator is an exact rational number:
// no floating point is ever used for scheduling decisions, so there is no
// accumulated drift between a CFS vruntime computed over a million steps and
// one computed in a single jump. The pack contains no third-party exact
// rational/decimal library (see DESIGN.md), so Time is built directly on
// math/big.Rat.

package schedsim_internal

import (
	"fmt"
	"math"
	"math/big"
)

// Time is an exact rational point in (or duration of) virtual time.
type Time struct {
	r big.Rat
}

// ZeroTime returns the Time 0.
func ZeroTime() Time {
	return Time{}
}

// NewTimeInt64 creates a Time representing the integer n.
func NewTimeInt64(n int64) Time {
	var t Time
	t.r.SetInt64(n)
	return t
}

// NewTimeFrac creates a Time representing num/den.
func NewTimeFrac(num, den int64) Time {
	var t Time
	t.r.SetFrac64(num, den)
	return t
}

// MaxTime returns a Time far beyond any realistic run horizon, used as the
// effective "run forever" cutoff when a run has no configured end time.
func MaxTime() Time {
	return NewTimeInt64(math.MaxInt64)
}

// ParseTime parses a decimal or rational ("3", "3/2", "1.5") string into a Time.
func ParseTime(s string) (*Time, error) {
	var t Time
	if _, ok := t.r.SetString(s); !ok {
		return nil, fmt.Errorf("invalid time literal %q", s)
	}
	return &t, nil
}

func (t Time) Add(o Time) Time {
	var res Time
	res.r.Add(&t.r, &o.r)
	return res
}

func (t Time) Sub(o Time) Time {
	var res Time
	res.r.Sub(&t.r, &o.r)
	return res
}

func (t Time) Mul(o Time) Time {
	var res Time
	res.r.Mul(&t.r, &o.r)
	return res
}

// MulInt scales t by the integer factor n.
func (t Time) MulInt(n int64) Time {
	var f big.Rat
	f.SetInt64(n)
	var res Time
	res.r.Mul(&t.r, &f)
	return res
}

// DivInt divides t by the integer divisor n.
func (t Time) DivInt(n int64) Time {
	var f big.Rat
	f.SetInt64(n)
	var res Time
	res.r.Quo(&t.r, &f)
	return res
}

// Cmp compares t to o: -1 if t<o, 0 if t==o, 1 if t>o.
func (t Time) Cmp(o Time) int {
	return t.r.Cmp(&o.r)
}

func (t Time) Sign() int {
	return t.r.Sign()
}

func (t Time) IsZero() bool {
	return t.r.Sign() == 0
}

func (t Time) LessThan(o Time) bool {
	return t.Cmp(o) < 0
}

func (t Time) LessEqual(o Time) bool {
	return t.Cmp(o) <= 0
}

func (t Time) GreaterThan(o Time) bool {
	return t.Cmp(o) > 0
}

func (t Time) GreaterEqual(o Time) bool {
	return t.Cmp(o) >= 0
}

func (t Time) Min(o Time) Time {
	if t.Cmp(o) <= 0 {
		return t
	}
	return o
}

func (t Time) Max(o Time) Time {
	if t.Cmp(o) >= 0 {
		return t
	}
	return o
}

func (t Time) String() string {
	return t.r.RatString()
}

// FloorDiv returns floor(t / o) as an integer. Used where a rational delta
// needs to be converted into an integer count of periods/activations.
func (t Time) FloorDiv(o Time) int64 {
	var q big.Rat
	q.Quo(&t.r, &o.r)
	var n big.Int
	n.Div(q.Num(), q.Denom())
	return n.Int64()
}

// MinTime reports the smallest of one or more Times.
func MinTime(first Time, rest ...Time) Time {
	min := first
	for _, t := range rest {
		min = min.Min(t)
	}
	return min
}
