package core

import "sort"

// SectionBudget is the planned-vs-actual view of a single section.
type SectionBudget struct {
	SectionID   string      `json:"sectionId"`
	Type        SectionType `json:"type"`
	Planned     Money       `json:"planned"`
	Actual      Money       `json:"actual"`
	Diff        Money       `json:"diff"`
	DiffPercent int         `json:"diffPercent"`
	Committed   Money       `json:"committed"`
	Contractor  string      `json:"contractor,omitempty"`
	OverBudget  bool        `json:"overBudget"`
}

// BudgetSummary aggregates section budgets for a whole project.
type BudgetSummary struct {
	ProjectID   string          `json:"projectId"`
	Target      Money           `json:"target"`
	Planned     Money           `json:"planned"`
	Spent       Money           `json:"spent"`
	Remaining   Money           `json:"remaining"`
	Percentage  int             `json:"percentage"`
	OverBudget  bool            `json:"isOverBudget"`
	Unallocated Money           `json:"unallocated"`
	Committed   Money           `json:"committed"`
	Sections    []SectionBudget `json:"sections"`
}

// BudgetInput carries what Summarize needs; it is built by the service
// layer from repository reads.
type BudgetInput struct {
	Project Project
	// Sections of the project, any order.
	Sections []Section
	// SpentBySection maps section id to the sum of its expenses.
	SpentBySection map[string]Money
	// Accepted maps section id to its accepted estimate, if any.
	Accepted map[string]Estimate
}

// Summarize derives the budget summary. Sections are reported in canonical
// section order regardless of input order.
func Summarize(in BudgetInput) BudgetSummary {
	sections := append([]Section(nil), in.Sections...)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Type.Order() < sections[j].Type.Order()
	})

	sum := BudgetSummary{
		ProjectID: in.Project.ID,
		Target:    in.Project.BudgetPlanned,
		Sections:  make([]SectionBudget, 0, len(sections)),
	}
	for _, s := range sections {
		sb := SectionBudget{
			SectionID: s.ID,
			Type:      s.Type,
			Planned:   s.Planned,
			Actual:    in.SpentBySection[s.ID],
		}
		sb.Diff = sb.Actual.Sub(sb.Planned)
		sb.DiffPercent = percent(sb.Diff.Cents, sb.Planned.Cents)
		sb.OverBudget = sb.Actual.Cents > sb.Planned.Cents
		if est, ok := in.Accepted[s.ID]; ok {
			sb.Committed = est.TotalAmount
			sb.Contractor = est.ContractorName
		}

		sum.Planned = sum.Planned.Add(sb.Planned)
		sum.Spent = sum.Spent.Add(sb.Actual)
		sum.Committed = sum.Committed.Add(sb.Committed)
		sum.Sections = append(sum.Sections, sb)
	}

	sum.Remaining = sum.Planned.Sub(sum.Spent)
	sum.Percentage = percent(sum.Spent.Cents, sum.Planned.Cents)
	sum.OverBudget = sum.Remaining.Cents < 0
	sum.Unallocated = sum.Target.Sub(sum.Planned)
	return sum
}

// Section returns the budget line for the given section type.
func (b BudgetSummary) Section(t SectionType) (SectionBudget, bool) {
	for _, s := range b.Sections {
		if s.Type == t {
			return s, true
		}
	}
	return SectionBudget{}, false
}

// percent returns part/whole*100 rounded half up (-2.5 becomes -2), or 0
// when whole is not positive.
func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	// floor((200*part + whole) / (2*whole)) in integers
	n, d := part*200+whole, whole*2
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return int(q)
}
