package advisor

import (
	"time"

	"remont/internal/core"
)

// LogisticsFloorThreshold is the floor above which a building without an
// elevator gets a material transport item.
const LogisticsFloorThreshold = 3

var baseChecklist = []core.ChecklistItem{
	{ID: "1", Category: core.CategoryPlumbing, Task: "Sprawdź stan pionów wodno-kanalizacyjnych", Priority: core.PriorityHigh},
	{ID: "2", Category: core.CategoryPlumbing, Task: "Zweryfikuj ciśnienie wody w punktach poboru", Priority: core.PriorityMedium},
	{ID: "3", Category: core.CategoryPlumbing, Task: "Sprawdź szczelność zaworów odcinających", Priority: core.PriorityHigh},
	{ID: "4", Category: core.CategoryElectrical, Task: "Zlokalizuj i sprawdź tablicę rozdzielczą", Priority: core.PriorityHigh},
	{ID: "5", Category: core.CategoryElectrical, Task: "Zweryfikuj typ instalacji (aluminium/miedź)", Priority: core.PriorityHigh},
	{ID: "6", Category: core.CategoryElectrical, Task: "Sprawdź działanie wszystkich gniazdek", Priority: core.PriorityMedium},
	{ID: "7", Category: core.CategoryStructure, Task: "Sprawdź ściany pod kątem pęknięć i wilgoci", Priority: core.PriorityHigh},
	{ID: "8", Category: core.CategoryStructure, Task: "Zweryfikuj stan sufitów - plamy, ugięcia", Priority: core.PriorityMedium},
	{ID: "9", Category: core.CategoryStructure, Task: "Sprawdź poziom podłóg", Priority: core.PriorityMedium},
	{ID: "10", Category: core.CategoryJoinery, Task: "Sprawdź stan okien i ich szczelność", Priority: core.PriorityMedium},
	{ID: "11", Category: core.CategoryJoinery, Task: "Zweryfikuj działanie drzwi wewnętrznych", Priority: core.PriorityLow},
	{ID: "12", Category: core.CategoryVentilation, Task: "Sprawdź ciąg w kratach wentylacyjnych", Priority: core.PriorityHigh},
	{ID: "13", Category: core.CategoryVentilation, Task: "Zweryfikuj stan nawiewników okiennych", Priority: core.PriorityMedium},
}

// GenerateChecklist builds a fresh checklist for the property. Item ids are
// stable so clients can refer to them across regenerations.
func GenerateChecklist(d core.PropertyData, now time.Time) core.Checklist {
	items := make([]core.ChecklistItem, 0, len(baseChecklist)+3)
	items = append(items, baseChecklist...)

	if d.Year > 0 && d.Year < OldBuildingYear {
		items = append(items, core.ChecklistItem{
			ID:       "14",
			Category: core.CategoryOther,
			Task:     "Sprawdź możliwość występowania azbestu w materiałach budowlanych",
			Priority: core.PriorityHigh,
		})
	}
	if !d.HasElevator && d.Floor > LogisticsFloorThreshold {
		items = append(items, core.ChecklistItem{
			ID:       "15",
			Category: core.CategoryOther,
			Task:     "Zaplanuj logistykę transportu materiałów (brak windy)",
			Priority: core.PriorityMedium,
		})
	}
	if d.MarketType == core.MarketSecondary {
		items = append(items, core.ChecklistItem{
			ID:       "16",
			Category: core.CategoryOther,
			Task:     "Poproś o dokumentację poprzednich remontów",
			Priority: core.PriorityMedium,
		})
	}
	return core.NewChecklist(items, now)
}
