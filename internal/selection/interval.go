// Package selection decides which moments of a video are worth capturing.
// It owns the pure spacing/sampling helpers, the structured-response
// parser, and the transcript- and scene-driven selectors built on them.
package selection

// ApplyMinInterval drops timestamps closer than minInterval seconds to the
// previously kept timestamp, scanning left to right. The first element is
// always kept. Prevents burst-capturing during slow zoom/pan animations.
//
// The input is expected to be sorted ascending; callers sort first. For an
// unsorted input the result is defined only relative to the given order.
func ApplyMinInterval(timestamps []float64, minInterval float64) []float64 {
	if len(timestamps) == 0 {
		return nil
	}

	filtered := []float64{timestamps[0]}
	for _, t := range timestamps[1:] {
		if t-filtered[len(filtered)-1] >= minInterval {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// FallbackTimestamps generates evenly spaced timestamps at interval,
// 2*interval, ... below duration, excluding any candidate within
// interval/2 of an existing timestamp. Used to guarantee baseline temporal
// coverage when a primary selector is too sparse.
func FallbackTimestamps(duration float64, existing []float64, interval float64) []float64 {
	var extra []float64
	for t := interval; t < duration; t += interval {
		if !nearAny(t, existing, interval/2) {
			extra = append(extra, t)
		}
	}
	return extra
}

func nearAny(t float64, existing []float64, tolerance float64) bool {
	for _, e := range existing {
		d := t - e
		if d < 0 {
			d = -d
		}
		if d < tolerance {
			return true
		}
	}
	return false
}
