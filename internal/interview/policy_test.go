package interview

import "testing"

func TestShouldContinue(t *testing.T) {
	tests := []struct {
		name    string
		current int
		target  int
		asked   int
		min     int
		max     int
		want    Decision
	}{
		{"below minimum always continues", 95, 90, 1, 2, 6, DecisionContinue},
		{"target reached", 92, 90, 3, 2, 6, DecisionCompleteSatisfied},
		{"target reached exactly", 90, 90, 2, 2, 6, DecisionCompleteSatisfied},
		{"cap reached short of target", 60, 90, 6, 2, 6, DecisionCompleteAtCap},
		{"past cap", 60, 90, 7, 2, 6, DecisionCompleteAtCap},
		{"early turn continues", 70, 90, 1, 2, 6, DecisionContinue},
		{"mid-interview continues", 70, 90, 3, 2, 6, DecisionContinue},
		{"good enough near cap", 86, 90, 4, 2, 6, DecisionCompleteGoodEnough},
		{"near cap but not close enough", 84, 90, 4, 2, 6, DecisionContinue},
		{"good enough window not open yet", 86, 90, 3, 2, 6, DecisionContinue},
		{"extension phase at cap", 70, 95, 5, 1, 5, DecisionCompleteAtCap},
		{"extension phase continues", 70, 95, 2, 1, 5, DecisionContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldContinue(tt.current, tt.target, tt.asked, tt.min, tt.max)
			if got != tt.want {
				t.Errorf("ShouldContinue(%d, %d, %d, %d, %d) = %v, want %v",
					tt.current, tt.target, tt.asked, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestDecisionComplete(t *testing.T) {
	if DecisionContinue.Complete() {
		t.Error("DecisionContinue should not be complete")
	}
	for _, d := range []Decision{DecisionCompleteSatisfied, DecisionCompleteAtCap, DecisionCompleteGoodEnough} {
		if !d.Complete() {
			t.Errorf("%v should be complete", d)
		}
	}
}

func TestDecisionString(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{DecisionContinue, "continue"},
		{DecisionCompleteSatisfied, "complete_satisfied"},
		{DecisionCompleteAtCap, "complete_at_cap"},
		{DecisionCompleteGoodEnough, "complete_good_enough"},
		{Decision(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}
