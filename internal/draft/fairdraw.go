package draft

import (
	"crypto/rand"
	"encoding/binary"
	"math"
)

// randIntn returns a uniform random int in [0, n) from the system CSPRNG.
// Uses rejection sampling so small n stays unbiased.
func randIntn(n int) int {
	if n <= 1 {
		return 0
	}
	max := uint64(n)
	limit := math.MaxUint64 - math.MaxUint64%max
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			// The platform CSPRNG failing is unrecoverable.
			panic("draft: crypto/rand unavailable: " + err.Error())
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return int(v % max)
		}
	}
}

// Shuffle returns a fresh uniformly-random permutation of ids. The input
// is not modified. Every call is independently unpredictable; collision
// avoidance between the two clients is the validator's job, not seeding's.
func Shuffle(ids []CardID) []CardID {
	out := make([]CardID, len(ids))
	copy(out, ids)
	for i := len(out) - 1; i > 0; i-- {
		j := randIntn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// WeightedSample draws target cards without replacement from two
// category slices, aiming for ratio from primary and the remainder from
// secondary. If one category runs dry the other backfills, so the ratio
// holds as closely as the available cards allow. Returns the combined
// draw; len(result) < target means both categories are exhausted.
func WeightedSample(primary, secondary []CardID, target int, ratio float64) (fromPrimary, fromSecondary []CardID) {
	if target <= 0 {
		return nil, nil
	}

	wantPrimary := int(math.Floor(float64(target) * ratio))
	wantSecondary := target - wantPrimary

	p := Shuffle(primary)
	s := Shuffle(secondary)

	if wantPrimary > len(p) {
		wantPrimary = len(p)
	}
	if wantSecondary > len(s) {
		wantSecondary = len(s)
	}
	fromPrimary = p[:wantPrimary]
	fromSecondary = s[:wantSecondary]

	// Backfill from whichever side has surplus.
	short := target - wantPrimary - wantSecondary
	if short > 0 {
		if extra := len(p) - wantPrimary; extra > 0 {
			n := min(short, extra)
			fromPrimary = p[:wantPrimary+n]
			short -= n
		}
	}
	if short > 0 {
		if extra := len(s) - wantSecondary; extra > 0 {
			n := min(short, extra)
			fromSecondary = s[:wantSecondary+n]
		}
	}

	return fromPrimary, fromSecondary
}
