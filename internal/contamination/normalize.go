package contamination

import "math"

// ClampScore rounds v and clamps it into the 1–10 rubric range.
func ClampScore(v float64) int {
	switch {
	case math.IsNaN(v) || v < MinScore:
		return MinScore
	case v > MaxScore:
		return MaxScore
	}
	return int(math.Round(v))
}

// NormalizeExternal brings an external-API score onto the 1–10 scale. The
// API may answer on 0–1, 1–10 or 0–100:
//
//	v <= 1       -> v * 10
//	v > 10       -> v / 10
//	1 < v <= 10  -> v
//
// and the result is rounded and clamped.
func NormalizeExternal(v float64) int {
	switch {
	case v <= 1:
		v *= 10
	case v > 10:
		v /= 10
	}
	return ClampScore(v)
}

// Canonical converts a raw 1–10 score into the persisted 0–1 score,
// (s-1)/9 rounded to four decimals.
func Canonical(score int) float64 {
	score = clampInt(score, MinScore, MaxScore)
	return round4(clamp01(float64(score-MinScore) / float64(MaxScore-MinScore)))
}

// RepairStoredScore fixes a legacy stored score that was written on the
// wrong scale. Values already in [0, 1] are returned unchanged with
// changed=false, so applying it twice is a no-op. The scale of a bad value
// is inferred from its magnitude: (1, 10] is read as the 1–10 rubric and
// mapped with the same formula as Canonical, anything above 10 is read as a
// 0–100 percentage.
func RepairStoredScore(stored float64) (repaired float64, changed bool) {
	switch {
	case math.IsNaN(stored):
		return 0, true
	case stored >= 0 && stored <= 1:
		return stored, false
	case stored < 0:
		return 0, true
	case stored <= MaxScore:
		return round4(clamp01((stored - MinScore) / (MaxScore - MinScore))), true
	default:
		return round4(clamp01(stored / 100)), true
	}
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
