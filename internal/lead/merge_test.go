package lead

import (
	"reflect"
	"testing"
)

func strptr(s string) *string { return &s }

func TestMergeIntoNilNeverClears(t *testing.T) {
	lead := Lead{
		Name:        "Ahmed",
		Phone:       "+201012345678",
		BudgetRange: strptr("3-4M EGP"),
	}

	changed := mergeInto(&lead, Extraction{})
	if changed {
		t.Error("empty extraction reported a change")
	}
	if lead.Phone != "+201012345678" {
		t.Errorf("phone cleared: %q", lead.Phone)
	}
	if lead.BudgetRange == nil || *lead.BudgetRange != "3-4M EGP" {
		t.Errorf("budget cleared: %v", lead.BudgetRange)
	}
}

func TestMergeIntoNonNilWins(t *testing.T) {
	lead := Lead{
		Name:        "Ahmed",
		Phone:       "+201012345678",
		BudgetRange: strptr("around 3M"),
	}

	changed := mergeInto(&lead, Extraction{
		BudgetRange: strptr("3.5M EGP cash"),
		Timeline:    strptr("within 3 months"),
	})
	if !changed {
		t.Fatal("merge reported no change")
	}
	if *lead.BudgetRange != "3.5M EGP cash" {
		t.Errorf("budget = %q, want updated value", *lead.BudgetRange)
	}
	if lead.Timeline == nil || *lead.Timeline != "within 3 months" {
		t.Errorf("timeline = %v", lead.Timeline)
	}
}

func TestMergeIntoNeverTouchesNotes(t *testing.T) {
	notes := "called twice, prefers evenings"
	lead := Lead{Name: "Ahmed", Phone: "+2010", Notes: &notes}

	mergeInto(&lead, Extraction{
		Name:  strptr("Ahmed Hassan"),
		Email: strptr("ahmed@example.com"),
	})
	if lead.Notes == nil || *lead.Notes != notes {
		t.Errorf("notes mutated by pipeline merge: %v", lead.Notes)
	}
}

func TestUnionProjectsDeduplicatesAndPreservesOrder(t *testing.T) {
	lead := Lead{InterestedProjects: []string{"Palm Hills", "Sodic East"}}

	changed := mergeInto(&lead, Extraction{
		InterestedProjects: []string{"Sodic East", "Mountain View", "Palm Hills"},
	})
	if !changed {
		t.Fatal("new project did not mark a change")
	}
	want := []string{"Palm Hills", "Sodic East", "Mountain View"}
	if !reflect.DeepEqual(lead.InterestedProjects, want) {
		t.Errorf("projects = %v, want %v", lead.InterestedProjects, want)
	}

	if mergeInto(&lead, Extraction{InterestedProjects: []string{"Palm Hills"}}) {
		t.Error("re-merging a known project reported a change")
	}
}

func TestApplyAutoStatusStickyTerminalStates(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		auto    Status
		want    Status
		changed bool
	}{
		{"cold to hot", StatusCold, StatusHot, StatusHot, true},
		{"hot stays hot", StatusHot, StatusHot, StatusHot, false},
		{"converted ignores hot", StatusConverted, StatusHot, StatusConverted, false},
		{"lost ignores warm", StatusLost, StatusWarm, StatusLost, false},
		{"new to warm", StatusNew, StatusWarm, StatusWarm, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{Status: tt.current}
			changed := applyAutoStatus(&lead, tt.auto)
			if changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
			if lead.Status != tt.want {
				t.Errorf("status = %q, want %q", lead.Status, tt.want)
			}
		})
	}
}

func TestExtractionReady(t *testing.T) {
	tests := []struct {
		name string
		e    Extraction
		want bool
	}{
		{"both present", Extraction{Name: strptr("Ahmed"), Phone: strptr("+2010")}, true},
		{"name only", Extraction{Name: strptr("Ahmed")}, false},
		{"phone only", Extraction{Phone: strptr("+2010")}, false},
		{"empty strings", Extraction{Name: strptr(""), Phone: strptr("+2010")}, false},
		{"nothing", Extraction{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Ready(); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWentHotEdge(t *testing.T) {
	tests := []struct {
		name    string
		prior   Status
		current Status
		want    bool
	}{
		{"created directly hot", "", StatusHot, true},
		{"warm to hot", StatusWarm, StatusHot, true},
		{"cold to hot", StatusCold, StatusHot, true},
		{"hot stays hot", StatusHot, StatusHot, false},
		{"hot to warm", StatusHot, StatusWarm, false},
		{"created warm", "", StatusWarm, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wentHot(tt.prior, tt.current); got != tt.want {
				t.Errorf("wentHot(%q, %q) = %v, want %v", tt.prior, tt.current, got, tt.want)
			}
		})
	}
}

// Classifying hot on consecutive turns must notify on the first turn only.
func TestHotNotifiesExactlyOnceAcrossTurns(t *testing.T) {
	lead := Lead{Status: StatusNew}

	edges := 0
	for turn := 0; turn < 3; turn++ {
		prior := lead.Status
		applyAutoStatus(&lead, StatusHot)
		if wentHot(prior, lead.Status) {
			edges++
		}
	}

	if edges != 1 {
		t.Errorf("hot edges across three hot turns = %d, want exactly 1", edges)
	}
}
