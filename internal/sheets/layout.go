// Package sheets defines how expenses and budget summaries are laid out in
// the exported spreadsheet. The Google Sheets client lives in sheets/google.
package sheets

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"remont/internal/core"
)

const (
	DefaultExpensesSheet = "Wydatki"
	DefaultBudgetPrefix  = "Budżet"

	// maxSheetTitle is the Sheets limit on tab titles.
	maxSheetTitle = 100
)

// ExpenseHeader is the first row of the expenses tab. Column A holds the
// expense id and is how rows are found again for deletion.
var ExpenseHeader = []any{"ID", "Data", "Projekt", "Sekcja", "Opis", "Kwota (zł)"}

var sectionLabels = map[core.SectionType]string{
	core.SectionPlan:       "Plan",
	core.SectionElectrical: "Elektryka",
	core.SectionPlumbing:   "Hydraulika",
	core.SectionCarpentry:  "Stolarka",
	core.SectionFinishing:  "Wykończenie",
	core.SectionCosts:      "Koszty",
}

// SectionLabel is the Polish display name of a section type.
func SectionLabel(t core.SectionType) string {
	if l, ok := sectionLabels[t]; ok {
		return l
	}
	return string(t)
}

// ExpenseRow renders one expense for the expenses tab. Amounts are plain
// numbers so spreadsheet formulas keep working.
func ExpenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		e.ProjectID,
		e.SectionID,
		e.Description,
		e.Amount.Zloty(),
	}
}

// BudgetSheetTitle names the budget tab of a project. The short id keeps
// tabs of equally named projects apart.
func BudgetSheetTitle(prefix string, p core.Project) string {
	if prefix == "" {
		prefix = DefaultBudgetPrefix
	}
	short := p.ID
	if len(short) > 8 {
		short = short[:8]
	}
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':', '\'':
			return '-'
		}
		return r
	}, strings.TrimSpace(p.Name))

	title := fmt.Sprintf("%s %s (%s)", prefix, name, short)
	for utf8.RuneCountInString(title) > maxSheetTitle && name != "" {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
		title = fmt.Sprintf("%s %s (%s)", prefix, name, short)
	}
	return title
}

// BudgetRows renders the budget tab: a project header block followed by
// one line per section and a totals line.
func BudgetRows(p core.Project, s core.BudgetSummary) [][]any {
	rows := [][]any{
		{"Projekt", p.Name},
		{"Adres", p.Address},
		{"Budżet docelowy", s.Target.Zloty()},
		{"Zaplanowano", s.Planned.Zloty()},
		{"Wydano", s.Spent.Zloty()},
		{"Pozostało", s.Remaining.Zloty()},
		{"Wykorzystanie %", s.Percentage},
		{"Nieprzydzielone", s.Unallocated.Zloty()},
		{},
		{"Sekcja", "Plan", "Wydano", "Różnica", "Różnica %", "Wykonawca", "Zaakceptowana oferta"},
	}
	for _, sb := range s.Sections {
		rows = append(rows, []any{
			SectionLabel(sb.Type),
			sb.Planned.Zloty(),
			sb.Actual.Zloty(),
			sb.Diff.Zloty(),
			sb.DiffPercent,
			sb.Contractor,
			sb.Committed.Zloty(),
		})
	}
	rows = append(rows, []any{
		"Razem",
		s.Planned.Zloty(),
		s.Spent.Zloty(),
		s.Spent.Sub(s.Planned).Zloty(),
		"",
		"",
		s.Committed.Zloty(),
	})
	return rows
}
