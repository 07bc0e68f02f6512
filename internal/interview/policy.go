package interview

// Default interview budgets.
const (
	DefaultTargetConfidence = 90
	DefaultMinQuestions     = 2
	DefaultMaxQuestions     = 6
	DefaultExtensionMax     = 5
)

// goodEnoughSlack is how close to the target (in confidence points)
// counts as good enough once the question budget is nearly spent.
const goodEnoughSlack = 5

// goodEnoughWindow is how many questions from the cap the good-enough
// rule starts applying.
const goodEnoughWindow = 2

// Decision is the termination policy's verdict after an answer.
type Decision int

const (
	// DecisionContinue asks another question.
	DecisionContinue Decision = iota

	// DecisionCompleteSatisfied finalizes: target confidence reached.
	DecisionCompleteSatisfied

	// DecisionCompleteAtCap finalizes at the question cap with the target
	// unmet; the analysis must disclose the shortfall.
	DecisionCompleteAtCap

	// DecisionCompleteGoodEnough finalizes near the cap with confidence
	// within slack of the target.
	DecisionCompleteGoodEnough
)

func (d Decision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionCompleteSatisfied:
		return "complete_satisfied"
	case DecisionCompleteAtCap:
		return "complete_at_cap"
	case DecisionCompleteGoodEnough:
		return "complete_good_enough"
	default:
		return "unknown"
	}
}

// Complete reports whether the decision finalizes the interview.
func (d Decision) Complete() bool {
	return d != DecisionContinue
}

// ShouldContinue decides whether to keep questioning. Rules are evaluated
// in order:
//
//  1. asked < min                                → continue unconditionally
//  2. current >= target                          → satisfied
//  3. asked >= max                               → at cap
//  4. asked >= max-2 and current >= target-5     → good enough
//  5. otherwise                                  → continue
//
// The same function governs the base interview and AskMore extensions,
// each with its own (asked, min, max) triple; the session's lifetime
// ceiling is enforced separately by the engine.
func ShouldContinue(current, target, asked, min, max int) Decision {
	if asked < min {
		return DecisionContinue
	}
	if current >= target {
		return DecisionCompleteSatisfied
	}
	if asked >= max {
		return DecisionCompleteAtCap
	}
	if asked >= max-goodEnoughWindow && current >= target-goodEnoughSlack {
		return DecisionCompleteGoodEnough
	}
	return DecisionContinue
}
