package contamination

import "strings"

// Label is the four-bucket contamination grade.
type Label string

const (
	LabelClean    Label = "Clean"
	LabelLow      Label = "Low"
	LabelModerate Label = "Moderate"
	LabelHigh     Label = "High"
)

// Score bounds of the rubric scale.
const (
	MinScore = 1
	MaxScore = 10
)

// bucket is an inclusive raw-score range.
type bucket struct {
	lo, hi int
	label  Label
}

var buckets = []bucket{
	{1, 2, LabelClean},
	{3, 4, LabelLow},
	{5, 7, LabelModerate},
	{8, 10, LabelHigh},
}

// LabelFor maps a raw 1–10 score to its label. Out-of-range input is clamped
// first.
func LabelFor(score int) Label {
	score = clampInt(score, MinScore, MaxScore)
	for _, b := range buckets {
		if score >= b.lo && score <= b.hi {
			return b.label
		}
	}
	return LabelHigh
}

// ParseLabel accepts a label in any letter case.
func ParseLabel(s string) (Label, bool) {
	for _, b := range buckets {
		if strings.EqualFold(strings.TrimSpace(s), string(b.label)) {
			return b.label, true
		}
	}
	return "", false
}

// floorScore is the lowest raw score inside the label's bucket.
func (l Label) floorScore() int {
	for _, b := range buckets {
		if b.label == l {
			return b.lo
		}
	}
	return MinScore
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
