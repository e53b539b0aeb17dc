package user

import (
	"math/rand"
	"testing"
	"time"
)

func TestJitteredIntervalStaysWithinBound(t *testing.T) {
	b := &Behavior{Interval: 10 * time.Second}
	r := rand.New(rand.NewSource(3))

	lower := time.Duration(float64(b.Interval) * (1 - jitterFraction))
	upper := time.Duration(float64(b.Interval) * (1 + jitterFraction))

	for i := 0; i < 1000; i++ {
		got := b.jitteredInterval(r)
		if got < lower || got > upper {
			t.Fatalf("jitteredInterval() = %v, want within [%v, %v]", got, lower, upper)
		}
	}
}

func TestJitteredIntervalIsDeterministicForFixedSeed(t *testing.T) {
	b := &Behavior{Interval: 5 * time.Second}

	r1 := rand.New(rand.NewSource(42))
	r2 := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		a := b.jitteredInterval(r1)
		c := b.jitteredInterval(r2)
		if a != c {
			t.Fatalf("expected identical sequences from identically seeded rngs, got %v vs %v", a, c)
		}
	}
}
