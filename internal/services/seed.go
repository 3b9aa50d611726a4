package services

import (
	"context"
	"fmt"

	"remont/internal/core"
)

type demoExpense struct {
	section     core.SectionType
	description string
	amount      core.Money
	date        core.Date
}

// SeedDemo creates a sample apartment renovation with planned budgets,
// expenses and competing electrical quotes.
func (t *Tracker) SeedDemo(ctx context.Context) (core.Project, error) {
	p, err := t.CreateProject(ctx, core.Project{
		Name:          "Mieszkanie Mokotów",
		Address:       "ul. Puławska 120, Warszawa",
		Area:          54.5,
		Floor:         4,
		MarketType:    core.MarketSecondary,
		BudgetPlanned: core.PLN(110000),
		YearBuilt:     1975,
	})
	if err != nil {
		return core.Project{}, fmt.Errorf("seed project: %w", err)
	}

	sections, err := t.repo.ListSections(ctx, p.ID)
	if err != nil {
		return core.Project{}, err
	}
	byType := make(map[core.SectionType]core.Section, len(sections))
	for _, s := range sections {
		byType[s.Type] = s
	}

	planned := map[core.SectionType]core.Money{
		core.SectionPlan:       core.PLN(5000),
		core.SectionElectrical: core.PLN(30000),
		core.SectionPlumbing:   core.PLN(15000),
		core.SectionCarpentry:  core.PLN(20000),
		core.SectionFinishing:  core.PLN(25000),
		core.SectionCosts:      core.PLN(5000),
	}
	inProgress := core.StatusInProgress
	for st, amount := range planned {
		patch := SectionPatch{Planned: &amount}
		if st.IsTrade() {
			patch.Status = &inProgress
		}
		if _, err := t.UpdateSection(ctx, byType[st].ID, patch); err != nil {
			return core.Project{}, fmt.Errorf("seed section %s: %w", st, err)
		}
	}

	expenses := []demoExpense{
		{core.SectionElectrical, "Instalacja elektryczna - ElektroPro", core.PLN(32400), core.NewDate(2024, 3, 12)},
		{core.SectionPlumbing, "Wymiana pionów i podejść", core.PLN(14200), core.NewDate(2024, 3, 20)},
		{core.SectionCarpentry, "Drzwi wewnętrzne i ościeżnice", core.PLN(18500), core.NewDate(2024, 4, 2)},
		{core.SectionFinishing, "Gładzie i malowanie - zaliczka", core.PLN(2400), core.NewDate(2024, 4, 15)},
	}
	for _, e := range expenses {
		if _, err := t.CreateExpense(ctx, core.Expense{
			SectionID:   byType[e.section].ID,
			Description: e.description,
			Amount:      e.amount,
			Date:        e.date,
		}); err != nil {
			return core.Project{}, fmt.Errorf("seed expense: %w", err)
		}
	}

	electrical := byType[core.SectionElectrical].ID
	quotes := []core.Estimate{
		{SectionID: electrical, ContractorName: "ElektroPro", TotalAmount: core.PLN(32400), Items: []core.EstimateItem{
			{Name: "Przewody YDY", Quantity: 300, Unit: "m", UnitPrice: core.PLN(6), Category: core.MaterialsCategory},
			{Name: "Rozdzielnica", Quantity: 1, Unit: "szt", UnitPrice: core.PLN(2400)},
			{Name: "Robocizna", Quantity: 1, Unit: "kpl", UnitPrice: core.PLN(28200)},
		}},
		{SectionID: electrical, ContractorName: "Iskra", TotalAmount: core.PLN(41000), Items: []core.EstimateItem{
			{Name: "Rozdzielnica", Quantity: 1, Unit: "szt", UnitPrice: core.PLN(3000)},
			{Name: "Robocizna", Quantity: 1, Unit: "kpl", UnitPrice: core.PLN(38000)},
		}},
		{SectionID: electrical, ContractorName: "Volt Serwis", TotalAmount: core.PLN(35500)},
	}
	var accepted string
	for i, q := range quotes {
		e, err := t.CreateEstimate(ctx, q)
		if err != nil {
			return core.Project{}, fmt.Errorf("seed estimate: %w", err)
		}
		if i == 0 {
			accepted = e.ID
		}
	}
	if _, err := t.AcceptEstimate(ctx, accepted); err != nil {
		return core.Project{}, fmt.Errorf("seed accept: %w", err)
	}

	if _, _, err := t.SavePropertyData(ctx, p.ID, propertyData(p)); err != nil {
		return core.Project{}, fmt.Errorf("seed checklist: %w", err)
	}
	if _, err := t.AddSuggestion(ctx, p.ID,
		"Budynek z 1975 roku - zaplanuj wymianę instalacji aluminiowej",
		map[string]string{"section": string(core.SectionElectrical)}); err != nil {
		return core.Project{}, fmt.Errorf("seed suggestion: %w", err)
	}

	return t.repo.GetProject(ctx, p.ID)
}
