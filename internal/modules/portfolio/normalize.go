package portfolio

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical storage format for all date columns
const DateLayout = "2006-01-02"

// dateLayouts are the accepted input formats, tried in order: ISO first,
// then the DD/MM/YYYY form common in operator spreadsheets.
var dateLayouts = []string{DateLayout, "02/01/2006"}

// ParseDate parses a date value from storage or import.
// Empty values yield nil; unparseable values yield nil as well so a bad cell
// degrades to "no date" instead of aborting a whole import.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDate renders a date pointer for storage, empty for nil
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseLocalFloat parses a numeric value accepting comma decimals ("132,5").
// Empty or unparseable values yield nil.
func ParseLocalFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, ",", ".")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Normalize trims all text fields of a project in place
func (p *Project) Normalize() {
	p.Name = trim(p.Name)
	p.TransferPotential = trim(p.TransferPotential)
	p.Status = trim(p.Status)
	p.Impact = trim(p.Impact)
	p.PMName = trim(p.PMName)
	p.PMCode = trim(p.PMCode)
	p.PMResponsible = trim(p.PMResponsible)
	p.PMState = trim(p.PMState)
	p.PMActive = trim(p.PMActive)
	p.InnovationLead = trim(p.InnovationLead)
	p.HasInnovationLead = trim(p.HasInnovationLead)
	p.Recommendation = trim(p.Recommendation)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// dateOnly truncates a time to its calendar date
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func equalsFold(s, target string) bool {
	return strings.EqualFold(strings.TrimSpace(s), target)
}

// isNegative reports whether a yes/no style field reads as "no".
// Blank counts as negative: an unanswered "has lead" field means no lead.
func isNegative(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no", "false", "0", "":
		return true
	}
	return false
}
