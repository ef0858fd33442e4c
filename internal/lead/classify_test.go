package lead

import "testing"

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("loading default policy: %v", err)
	}
	return NewClassifier(policy)
}

func TestClassifyPriorityRules(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name    string
		signals Signals
		want    Status
	}{
		{
			"explicit visit intent flag",
			Signals{VisitIntent: true},
			StatusHot,
		},
		{
			"arabic visit keyword",
			Signals{Text: "عايز أزور المشروع بكرا"},
			StatusHot,
		},
		{
			"english booking keyword",
			Signals{Text: "Can I book a viewing this weekend?"},
			StatusHot,
		},
		{
			"visit intent beats pricing",
			Signals{VisitIntent: true, PricingQuestions: true},
			StatusHot,
		},
		{
			"pricing flag",
			Signals{PricingQuestions: true},
			StatusWarm,
		},
		{
			"arabic installment keyword",
			Signals{Text: "ايه نظام التقسيط عندكم؟"},
			StatusWarm,
		},
		{
			"english payment plan keyword",
			Signals{Text: "what payment plan do you offer"},
			StatusWarm,
		},
		{
			"no signals",
			Signals{Text: "شكرا"},
			StatusCold,
		},
		{
			"empty text",
			Signals{},
			StatusCold,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.signals); got != tt.want {
				t.Errorf("Classify(%+v) = %q, want %q", tt.signals, got, tt.want)
			}
		})
	}
}

func TestClassifyLatinKeywordsCaseInsensitive(t *testing.T) {
	c := newTestClassifier(t)
	if got := c.Classify(Signals{Text: "WHAT IS THE PRICE?"}); got != StatusWarm {
		t.Errorf("uppercase pricing text classified %q, want warm", got)
	}
}

func TestLoadPolicyDefaultEmbedded(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if len(policy.HotKeywords) == 0 {
		t.Error("default policy has no hot keywords")
	}
	if len(policy.WarmKeywords) == 0 {
		t.Error("default policy has no warm keywords")
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy("/nonexistent/policy.yaml"); err == nil {
		t.Fatal("expected error for missing policy file")
	}
}
