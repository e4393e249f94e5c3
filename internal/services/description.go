package services

import "strings"

// BuildDescription composes the mirrored ledger entry description from a
// debt title and an optional free-text note. Pure; both the record and
// amend paths go through here so the two can never drift.
func BuildDescription(debtTitle, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return "Pay debt: " + debtTitle
	}
	return "Pay debt: " + debtTitle + " - " + note
}
