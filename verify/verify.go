// Package verify checks the result of an elementwise addition on the host.
package verify

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrLengthMismatch is returned when the operand and result lengths differ
var ErrLengthMismatch = errors.New("buffer lengths differ")

// MismatchError reports the first index where result != a + b
type MismatchError struct {
	Index int
	A, B  float32
	Got   float32
	Want  float32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("assertion failed at position %d: %v != %v + %v (want %v)",
		e.Index, e.Got, e.A, e.B, e.Want)
}

// Verify checks r[i] == a[i] + b[i] with exact float32 equality for every
// index, writing one line per comparison to w. It stops at the first
// mismatch and returns it as a *MismatchError.
func Verify(w io.Writer, a, b, r []float32) error {
	if len(a) != len(b) || len(a) != len(r) {
		return fmt.Errorf("%w: a=%d b=%d result=%d", ErrLengthMismatch, len(a), len(b), len(r))
	}

	for i := range r {
		want := a[i] + b[i]
		ok := r[i] == want
		if w != nil {
			if _, err := fmt.Fprintf(w, "assertion at position %d is %t, comparing %v = %v + %v\n",
				i, ok, r[i], a[i], b[i]); err != nil {
				return fmt.Errorf("failed to write verification line %d: %w", i, err)
			}
		}
		if !ok {
			return &MismatchError{Index: i, A: a[i], B: b[i], Got: r[i], Want: want}
		}
	}
	return nil
}

// Summary describes a verified run
type Summary struct {
	Elements int
	MinA     float64
	MaxA     float64
	MinB     float64
	MaxB     float64

	// MaxError is the largest |r[i] - (a[i] + b[i])|
	MaxError float64
}

// Summarize computes operand ranges and the largest absolute error of r
// against a + b
func Summarize(a, b, r []float32) Summary {
	n := min(len(a), len(b), len(r))
	if n == 0 {
		return Summary{}
	}

	a64 := toFloat64(a[:n])
	b64 := toFloat64(b[:n])
	r64 := toFloat64(r[:n])

	// Sum in float32 so the expected values match what the kernel computes
	want := make([]float64, n)
	for i := 0; i < n; i++ {
		want[i] = float64(a[i] + b[i])
	}

	return Summary{
		Elements: n,
		MinA:     floats.Min(a64),
		MaxA:     floats.Max(a64),
		MinB:     floats.Min(b64),
		MaxB:     floats.Max(b64),
		MaxError: floats.Distance(r64, want, math.Inf(1)),
	}
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
