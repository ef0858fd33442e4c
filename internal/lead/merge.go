package lead

// Merge rules: every field moves monotonically. A non-nil extraction value
// wins over whatever is stored (the extractor re-reads the full history each
// turn, so its latest output is the customer's latest word), a nil value
// never clears anything, interested_projects only grows, and notes belong to
// operators alone.

// mergeInto applies partial onto lead in place and reports whether anything
// changed. Status is handled separately by applyAutoStatus.
func mergeInto(lead *Lead, partial Extraction) bool {
	changed := false

	if v := deref(partial.Name); v != "" && v != lead.Name {
		lead.Name = v
		changed = true
	}
	if v := deref(partial.Phone); v != "" && v != lead.Phone {
		lead.Phone = v
		changed = true
	}
	if adoptOptional(&lead.Email, partial.Email) {
		changed = true
	}
	if adoptOptional(&lead.BudgetRange, partial.BudgetRange) {
		changed = true
	}
	if adoptOptional(&lead.Timeline, partial.Timeline) {
		changed = true
	}
	if adoptOptional(&lead.PreferredType, partial.PreferredType) {
		changed = true
	}
	if adoptOptional(&lead.PreferredSize, partial.PreferredSize) {
		changed = true
	}
	if adoptOptional(&lead.PaymentPlan, partial.PaymentPlan) {
		changed = true
	}
	if unionProjects(&lead.InterestedProjects, partial.InterestedProjects) {
		changed = true
	}

	return changed
}

// applyAutoStatus writes the classifier's verdict unless an operator has
// moved the lead to a terminal state.
func applyAutoStatus(lead *Lead, auto Status) bool {
	if lead.Status.OperatorOwned() {
		return false
	}
	if lead.Status == auto {
		return false
	}
	lead.Status = auto
	return true
}

// wentHot reports the upward edge into hot. Only the edge notifies; a lead
// classified hot again on the next turn stays silent. A freshly created lead
// has no prior status, so creating directly into hot is an edge too.
func wentHot(prior, current Status) bool {
	return prior != StatusHot && current == StatusHot
}

func adoptOptional(dst **string, src *string) bool {
	if src == nil || *src == "" {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// unionProjects appends new project names preserving first-seen order.
func unionProjects(dst *[]string, src []string) bool {
	if len(src) == 0 {
		return false
	}
	seen := make(map[string]bool, len(*dst))
	for _, p := range *dst {
		seen[p] = true
	}
	changed := false
	for _, p := range src {
		if p == "" || seen[p] {
			continue
		}
		*dst = append(*dst, p)
		seen[p] = true
		changed = true
	}
	return changed
}
