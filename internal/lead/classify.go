package lead

import "strings"

// Signals are the inputs to one classification decision: the structured
// flags from the latest extraction plus the customer's latest message text
// for keyword matching.
type Signals struct {
	VisitIntent      bool
	PricingQuestions bool
	Text             string
}

// Classifier maps signals to a qualification tier using fixed-priority
// rules. It is a pure function of its policy; the stickiness of operator
// statuses is enforced at merge time, not here.
type Classifier struct {
	policy Policy
}

func NewClassifier(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify applies the rules in priority order, first match wins:
// explicit visit or booking intent makes a lead hot, detailed price or
// payment questions make it warm, anything else is cold.
func (c *Classifier) Classify(signals Signals) Status {
	text := strings.ToLower(signals.Text)

	if signals.VisitIntent || containsAny(text, c.policy.HotKeywords) {
		return StatusHot
	}
	if signals.PricingQuestions || containsAny(text, c.policy.WarmKeywords) {
		return StatusWarm
	}
	return StatusCold
}

func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
