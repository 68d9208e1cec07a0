package contamination

import (
	"math"
	"testing"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestLabelFor_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Label
	}{
		{1, LabelClean},
		{2, LabelClean},
		{3, LabelLow},
		{4, LabelLow},
		{5, LabelModerate},
		{7, LabelModerate},
		{8, LabelHigh},
		{10, LabelHigh},
		{0, LabelClean}, // clamped up
		{42, LabelHigh}, // clamped down
	}
	for _, tc := range tests {
		if got := LabelFor(tc.score); got != tc.want {
			t.Errorf("LabelFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	if l, ok := ParseLabel(" moderate "); !ok || l != LabelModerate {
		t.Errorf("ParseLabel(moderate) = %q, %v", l, ok)
	}
	if _, ok := ParseLabel("filthy"); ok {
		t.Errorf("ParseLabel(filthy) should fail")
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-3, 1},
		{0.4, 1},
		{1.49, 1},
		{1.5, 2},
		{6.5, 7},
		{9.6, 10},
		{17, 10},
		{math.NaN(), 1},
		{math.Inf(1), 10},
	}
	for _, tc := range tests {
		if got := ClampScore(tc.in); got != tc.want {
			t.Errorf("ClampScore(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeExternal(t *testing.T) {
	tests := []struct {
		name      string
		in        float64
		wantScore int
		wantLabel Label
	}{
		{"fraction scale", 0.7, 7, LabelModerate},
		{"percentage scale", 85, 9, LabelHigh},
		{"rubric scale unchanged", 6, 6, LabelModerate},
		{"exactly one is fraction scale", 1, 10, LabelHigh},
		{"zero clamps to one", 0, 1, LabelClean},
		{"hundred percent", 100, 10, LabelHigh},
		{"small percentage", 12, 1, LabelClean},
		{"exactly ten", 10, 10, LabelHigh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeExternal(tc.in)
			if got != tc.wantScore {
				t.Fatalf("NormalizeExternal(%v) = %d, want %d", tc.in, got, tc.wantScore)
			}
			if l := LabelFor(got); l != tc.wantLabel {
				t.Errorf("label = %s, want %s", l, tc.wantLabel)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{1, 0},
		{10, 1},
		{6, 0.5556},
		{9, 0.8889},
		{-5, 0},
		{15, 1},
	}
	for _, tc := range tests {
		if got := Canonical(tc.score); !almostEqual(got, tc.want, 1e-9) {
			t.Errorf("Canonical(%d) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestCanonical_AlwaysInUnitRange(t *testing.T) {
	for s := -20; s <= 120; s++ {
		got := Canonical(s)
		if got < 0 || got > 1 {
			t.Fatalf("Canonical(%d) = %v outside [0,1]", s, got)
		}
	}
}

func TestRepairStoredScore(t *testing.T) {
	tests := []struct {
		name        string
		stored      float64
		want        float64
		wantChanged bool
	}{
		{"already canonical", 0.4444, 0.4444, false},
		{"zero", 0, 0, false},
		{"one", 1, 1, false},
		{"rubric scale nine", 9, 0.8889, true},
		{"rubric scale ten", 10, 1, true},
		{"percentage", 85, 0.85, true},
		{"percentage above hundred", 140, 1, true},
		{"negative", -2, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := RepairStoredScore(tc.stored)
			if changed != tc.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if !almostEqual(got, tc.want, 1e-9) {
				t.Errorf("RepairStoredScore(%v) = %v, want %v", tc.stored, got, tc.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("repaired score %v outside [0,1]", got)
			}
		})
	}
}

func TestRepairStoredScore_Idempotent(t *testing.T) {
	for _, stored := range []float64{0, 0.3, 1, 1.5, 7, 10, 55, 100, 250, -1} {
		once, _ := RepairStoredScore(stored)
		twice, changed := RepairStoredScore(once)
		if changed {
			t.Errorf("second repair of %v reported a change", stored)
		}
		if twice != once {
			t.Errorf("second repair of %v: %v != %v", stored, twice, once)
		}
	}
}

func TestAlertPolicy(t *testing.T) {
	p := NewAlertPolicy(0)
	if p.Threshold != DefaultAlertThreshold {
		t.Fatalf("default threshold = %d, want %d", p.Threshold, DefaultAlertThreshold)
	}
	if p.ShouldAlert(5) {
		t.Errorf("score 5 should not alert at threshold 6")
	}
	if !p.ShouldAlert(6) {
		t.Errorf("score 6 should alert at threshold 6 (meets)")
	}
	if !p.ShouldAlert(9) {
		t.Errorf("score 9 should alert")
	}
	if NewAlertPolicy(8).ShouldAlert(7) {
		t.Errorf("custom threshold 8 should not alert on 7")
	}
}
