package ai

import "testing"

func TestParseReplyWithLeadData(t *testing.T) {
	raw := "أهلا يا أحمد! المشروع متاح فعلا.\n\n---LEAD_DATA---\n" +
		`{"name": "Ahmed", "phone": "01012345678", "visit_intent": true, "interested_projects": ["Palm Hills October"]}` +
		"\n---END_LEAD_DATA---"

	text, extraction, err := ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if text != "أهلا يا أحمد! المشروع متاح فعلا." {
		t.Errorf("text = %q", text)
	}
	if extraction == nil {
		t.Fatal("extraction is nil")
	}
	if extraction.Name == nil || *extraction.Name != "Ahmed" {
		t.Errorf("name = %v", extraction.Name)
	}
	if extraction.Phone == nil || *extraction.Phone != "01012345678" {
		t.Errorf("phone = %v", extraction.Phone)
	}
	if !extraction.VisitIntent {
		t.Error("visit_intent not parsed")
	}
	if len(extraction.InterestedProjects) != 1 || extraction.InterestedProjects[0] != "Palm Hills October" {
		t.Errorf("interested_projects = %v", extraction.InterestedProjects)
	}
}

func TestParseReplyNoBlock(t *testing.T) {
	text, extraction, err := ParseReply("  just a plain reply  ")
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if text != "just a plain reply" {
		t.Errorf("text = %q", text)
	}
	if extraction != nil {
		t.Errorf("extraction = %+v, want nil", extraction)
	}
}

func TestParseReplyMalformedJSON(t *testing.T) {
	raw := "reply text\n---LEAD_DATA---\n{broken\n---END_LEAD_DATA---"

	text, extraction, err := ParseReply(raw)
	if err == nil {
		t.Fatal("expected error for malformed block")
	}
	if text != "reply text" {
		t.Errorf("text = %q, reply should survive a bad block", text)
	}
	if extraction != nil {
		t.Errorf("extraction = %+v, want nil", extraction)
	}
}

func TestParseReplyUnterminatedBlock(t *testing.T) {
	raw := "reply text\n---LEAD_DATA---\n{\"name\": \"A\"}"

	text, extraction, err := ParseReply(raw)
	if err == nil {
		t.Fatal("expected error for unterminated block")
	}
	if text != "reply text" || extraction != nil {
		t.Errorf("got (%q, %+v)", text, extraction)
	}
}

func TestParseReplyOmittedFieldsStayNil(t *testing.T) {
	raw := "ok\n---LEAD_DATA---\n{\"budget_range\": \"3M\"}\n---END_LEAD_DATA---"

	_, extraction, err := ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if extraction.Name != nil || extraction.Phone != nil {
		t.Error("omitted fields should stay nil, never zero values")
	}
	if extraction.BudgetRange == nil || *extraction.BudgetRange != "3M" {
		t.Errorf("budget_range = %v", extraction.BudgetRange)
	}
}
