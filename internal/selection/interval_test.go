package selection

import (
	"math/rand"
	"sort"
	"testing"
)

func TestApplyMinIntervalBasic(t *testing.T) {
	tests := []struct {
		name        string
		in          []float64
		minInterval float64
		want        []float64
	}{
		{"empty", nil, 5, nil},
		{"single", []float64{3}, 5, []float64{3}},
		{"keeps spaced", []float64{0, 5, 10}, 5, []float64{0, 5, 10}},
		{"drops bursts", []float64{0, 1, 2, 8, 9, 20}, 5, []float64{0, 8, 20}},
		{"close pair dropped", []float64{50, 52, 120}, 5, []float64{50, 120}},
		{"exact gap kept", []float64{10, 15}, 5, []float64{10, 15}},
		{"just under gap dropped", []float64{10, 14.999}, 5, []float64{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyMinInterval(tt.in, tt.minInterval)
			if len(got) != len(tt.want) {
				t.Fatalf("ApplyMinInterval(%v, %v) = %v, want %v", tt.in, tt.minInterval, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ApplyMinInterval(%v, %v) = %v, want %v", tt.in, tt.minInterval, got, tt.want)
					break
				}
			}
		})
	}
}

// The output must be a subsequence of the input, always include the first
// element, and never contain two consecutive elements closer than the
// interval.
func TestApplyMinIntervalMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		n := rng.Intn(50) + 1
		in := make([]float64, n)
		for i := range in {
			in[i] = rng.Float64() * 600
		}
		sort.Float64s(in)
		m := rng.Float64() * 20

		out := ApplyMinInterval(in, m)

		if len(out) == 0 || out[0] != in[0] {
			t.Fatalf("first element not kept: in=%v out=%v", in, out)
		}
		for i := 1; i < len(out); i++ {
			if out[i]-out[i-1] < m {
				t.Fatalf("gap %v < %v in output %v", out[i]-out[i-1], m, out)
			}
		}
		// Subsequence check.
		j := 0
		for _, v := range in {
			if j < len(out) && out[j] == v {
				j++
			}
		}
		if j != len(out) {
			t.Fatalf("output %v is not a subsequence of input %v", out, in)
		}
	}
}

func TestFallbackTimestampsSpacing(t *testing.T) {
	got := FallbackTimestamps(35, nil, 10)
	want := []float64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("FallbackTimestamps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FallbackTimestamps = %v, want %v", got, want)
		}
	}
}

func TestFallbackTimestampsExcludesNearExisting(t *testing.T) {
	existing := []float64{19, 42}
	got := FallbackTimestamps(60, existing, 10)

	for _, ts := range got {
		if ts >= 60 {
			t.Errorf("timestamp %v exceeds duration", ts)
		}
		for _, e := range existing {
			d := ts - e
			if d < 0 {
				d = -d
			}
			if d < 5 {
				t.Errorf("timestamp %v within interval/2 of existing %v", ts, e)
			}
		}
	}

	// 20 collides with 19 (|20-19| < 5) and 40 with 42; 10, 30, 50 survive.
	want := []float64{10, 30, 50}
	if len(got) != len(want) {
		t.Fatalf("FallbackTimestamps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FallbackTimestamps = %v, want %v", got, want)
		}
	}
}

func TestFallbackTimestampsEmptyDuration(t *testing.T) {
	if got := FallbackTimestamps(0, nil, 10); len(got) != 0 {
		t.Errorf("FallbackTimestamps(0, ...) = %v, want empty", got)
	}
}
