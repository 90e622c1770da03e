// Package datagen fills operand buffers.
package datagen

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Range of generated values, inclusive
const (
	Min = 0.0
	Max = 5.0
)

// Decimals is the number of decimal places kept by Round
const Decimals = 3

// NewSource returns a PCG source for seed. A zero seed is replaced by the
// current time.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Fill writes len(buf) values drawn uniformly from [Min, Max], each rounded
// to Decimals places
func Fill(buf []float32, src rand.Source) {
	u := distuv.Uniform{Min: Min, Max: Max, Src: src}
	for i := range buf {
		buf[i] = Round(u.Rand())
	}
}

// Round rounds v to Decimals places: round(v*1000)/1000
func Round(v float64) float32 {
	scale := math.Pow(10, Decimals)
	return float32(math.Round(v*scale) / scale)
}

// Constant sets every element of buf to v
func Constant(buf []float32, v float32) {
	for i := range buf {
		buf[i] = v
	}
}
