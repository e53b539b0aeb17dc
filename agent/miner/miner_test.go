package miner

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestNewRejectsOutOfRangeHashrate(t *testing.T) {
	if _, err := New(0, 1000); err == nil {
		t.Fatal("expected error for zero hashrate")
	}
	if _, err := New(101, 1000); err == nil {
		t.Fatal("expected error for hashrate above 100")
	}
	if _, err := New(50, 0); err == nil {
		t.Fatal("expected error for zero total network hashrate")
	}
}

// TestDrawWaitDurationMeanMatchesInverseLambda checks that the sample
// mean of drawWaitDuration over many draws converges to 1/lambda, the
// expected inter-arrival time of a Poisson process with that rate.
func TestDrawWaitDurationMeanMatchesInverseLambda(t *testing.T) {
	const hashrate = 20.0
	const totalNetworkHashrate = 1000000
	const difficulty = 5000.0
	lambda := (hashrate / 100) * float64(totalNetworkHashrate) / difficulty
	want := 1 / lambda

	r := rand.New(rand.NewSource(7))
	const n = 200000
	var sum float64
	for i := 0; i < n; i++ {
		d := drawWaitDuration(hashrate, totalNetworkHashrate, difficulty, r.Float64())
		sum += d.Seconds()
	}
	got := sum / n

	if rel := math.Abs(got-want) / want; rel > 0.02 {
		t.Fatalf("sample mean %v deviates from expected %v by %.4f, want <= 0.02", got, want, rel)
	}
}

// TestDrawWaitDurationHashrateShareIsProportional checks that doubling
// a miner's hashrate share halves its expected wait, holding
// difficulty and total network hashrate fixed.
func TestDrawWaitDurationHashrateShareIsProportional(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	const n = 100000
	const totalNetworkHashrate = 1000000
	const difficulty = 1000.0

	mean := func(hashrate float64) float64 {
		var sum float64
		for i := 0; i < n; i++ {
			sum += drawWaitDuration(hashrate, totalNetworkHashrate, difficulty, r.Float64()).Seconds()
		}
		return sum / n
	}

	low := mean(10)
	high := mean(20)

	ratio := low / high
	if math.Abs(ratio-2) > 0.1 {
		t.Fatalf("expected doubling hashrate to roughly halve mean wait, got ratio %v", ratio)
	}
}

func TestDrawWaitDurationZeroDifficultyFallback(t *testing.T) {
	// currentDifficulty never returns 0 (it falls back to
	// fallbackDifficulty), but drawWaitDuration should still produce a
	// finite, non-negative duration for any positive difficulty input.
	d := drawWaitDuration(50, 1000000, fallbackDifficulty, 0.5)
	if d <= 0 {
		t.Fatalf("expected a positive wait duration, got %v", d)
	}
	if d > time.Hour {
		t.Fatalf("unexpectedly large wait duration: %v", d)
	}
}
