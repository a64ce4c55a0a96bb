// ABOUTME: Rational time bases and timestamp rescaling
// ABOUTME: Converts timestamps between time units without floating point drift
package audio

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// NoTimestamp marks a missing presentation timestamp
const NoTimestamp int64 = math.MinInt64

// Rational is a time base: one tick lasts Num/Den seconds
type Rational struct {
	Num int64
	Den int64
}

// NewRational creates a rational time base
func NewRational(num, den int64) Rational {
	return Rational{Num: num, Den: den}
}

// SampleTimeBase returns the time base where one tick is one sample at rate
func SampleTimeBase(sampleRate int) Rational {
	return Rational{Num: 1, Den: int64(sampleRate)}
}

// Common time bases
var (
	TimeBaseMillis = Rational{Num: 1, Den: 1000}
	TimeBase48kHz  = Rational{Num: 1, Den: 48000}
	TimeBase44kHz  = Rational{Num: 1, Den: 44100}
)

// Valid reports whether the rational can be used as a time base
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts v from one time base to another.
//
// The result is v*from/to computed exactly and rounded to the nearest
// integer, ties away from zero. The mapping is monotone in v, so a
// non-decreasing sequence stays non-decreasing after rescaling.
// NoTimestamp and invalid time bases yield NoTimestamp.
func Rescale(v int64, from, to Rational) int64 {
	if v == NoTimestamp || !from.Valid() || !to.Valid() {
		return NoTimestamp
	}
	if from == to {
		return v
	}

	num := new(big.Int).SetInt64(v)
	num.Mul(num, big.NewInt(from.Num))
	num.Mul(num, big.NewInt(to.Den))

	den := new(big.Int).SetInt64(from.Den)
	den.Mul(den, big.NewInt(to.Num))

	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	// |r|*2 >= den rounds away from zero
	r.Abs(r)
	r.Lsh(r, 1)
	if r.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}

	if !q.IsInt64() {
		if q.Sign() < 0 {
			return math.MinInt64 + 1
		}
		return math.MaxInt64
	}
	return q.Int64()
}

// ToDuration converts a timestamp in time base tb to a time.Duration
func ToDuration(ts int64, tb Rational) time.Duration {
	if ts == NoTimestamp || !tb.Valid() {
		return 0
	}
	return time.Duration(Rescale(ts, tb, Rational{Num: 1, Den: int64(time.Second)}))
}
