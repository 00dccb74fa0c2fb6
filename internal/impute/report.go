package impute

import (
	"fmt"
	"strings"
)

// Report summarizes one imputation run.
type Report struct {
	RunID        string        `json:"run_id"`
	Source       string        `json:"source,omitempty"`
	GroupColumn  string        `json:"group_column"`
	TargetColumn string        `json:"target_column"`
	Rows         int           `json:"rows"`
	Groups       []GroupReport `json:"groups"`
	Coerced      int           `json:"coerced"`
	Filled       int           `json:"filled"`
	Unfilled     int           `json:"unfilled"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// GroupReport holds per-group counts. Mean is nil when the group had no numeric values.
type GroupReport struct {
	Key      string   `json:"key"`
	Size     int      `json:"size"`
	Valid    int      `json:"valid"`
	Coerced  int      `json:"coerced"`
	Filled   int      `json:"filled"`
	Unfilled int      `json:"unfilled"`
	Mean     *float64 `json:"mean"`
}

func (r *Report) add(g GroupReport) {
	r.Groups = append(r.Groups, g)
	r.Coerced += g.Coerced
	r.Filled += g.Filled
	r.Unfilled += g.Unfilled
	switch {
	case g.Valid == 0:
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s=%s has no numeric %s values; %d row(s) left missing",
			r.GroupColumn, safeVal(g.Key), r.TargetColumn, g.Unfilled))
	case g.Unfilled > 0:
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s=%s has an undefined %s mean; %d row(s) left missing",
			r.GroupColumn, safeVal(g.Key), r.TargetColumn, g.Unfilled))
	}
}

// Markdown renders a compact summary for terminals or docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Groups: %d (by %s)\n", len(r.Groups), r.GroupColumn))
	b.WriteString(fmt.Sprintf("Target: %s (coerced %d, filled %d, left missing %d)\n", r.TargetColumn, r.Coerced, r.Filled, r.Unfilled))

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUPS]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s=%s (n=%d): valid %d", r.GroupColumn, safeVal(g.Key), g.Size, g.Valid))
			if g.Coerced > 0 {
				b.WriteString(fmt.Sprintf(", coerced %d", g.Coerced))
			}
			if g.Filled > 0 {
				b.WriteString(fmt.Sprintf(", filled %d", g.Filled))
			}
			if g.Mean != nil {
				b.WriteString(fmt.Sprintf("; mean %.6g", *g.Mean))
			} else {
				b.WriteString("; mean undefined")
			}
			b.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
