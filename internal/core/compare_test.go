package core

import (
	"strings"
	"testing"
)

func est(id, contractor string, zl int64, items ...EstimateItem) Estimate {
	return Estimate{ID: id, ContractorName: contractor, TotalAmount: PLN(zl), Items: items}
}

func TestCompareNeedsMore(t *testing.T) {
	c := Compare([]Estimate{est("a", "A", 100)}, 1)
	if !c.NeedsMoreEstimates || len(c.Selected) != 0 {
		t.Fatalf("expected needs-more state, got %+v", c)
	}
	if c := Compare(nil, 0); !c.NeedsMoreEstimates {
		t.Fatalf("empty section should need more")
	}
}

func TestCompareStats(t *testing.T) {
	mat := EstimateItem{Name: "Przewody", Category: MaterialsCategory}
	work := EstimateItem{Name: "Robocizna"}
	sel := []Estimate{
		est("a", "ElektroPro", 10000, mat, work),
		est("b", "Iskra", 12500, mat, work),
		est("c", "Volt", 11000, mat, work),
	}
	c := Compare(sel, 3)

	if c.Lowest != PLN(10000) || c.Highest != PLN(12500) {
		t.Fatalf("bounds = %v / %v", c.Lowest, c.Highest)
	}
	if c.Average.Cents != 1116667 {
		t.Fatalf("average = %v", c.Average)
	}
	if !c.Selected[0].IsLowest || !c.Selected[1].IsHighest {
		t.Fatalf("flags wrong: %+v", c.Selected)
	}
	if c.Selected[1].PercentAbove != 25 || c.Selected[2].PercentAbove != 10 {
		t.Fatalf("percent above = %d, %d", c.Selected[1].PercentAbove, c.Selected[2].PercentAbove)
	}

	if len(c.Insights) != 1 || c.Insights[0].Type != InsightInfo {
		t.Fatalf("expected only spread insight, got %+v", c.Insights)
	}
	if c.Insights[0].Text != "Różnica między ofertami wynosi 25% - zapytaj o szczegóły" {
		t.Fatalf("spread text = %q", c.Insights[0].Text)
	}
}

func TestCompareMissingItemsAndMaterials(t *testing.T) {
	sel := []Estimate{
		est("a", "ElektroPro", 100,
			EstimateItem{Name: "Gniazdka"}, EstimateItem{Name: "Rozdzielnica"}, EstimateItem{Name: "Pomiary"}),
		est("b", "Iskra", 110, EstimateItem{Name: "gniazdka"}),
	}
	c := Compare(sel, 2)

	if len(c.Selected[1].MissingItems) != 2 {
		t.Fatalf("missing = %v", c.Selected[1].MissingItems)
	}
	var warn, materials bool
	for _, in := range c.Insights {
		if in.Text == "Iskra nie uwzględnia: rozdzielnica, pomiary" {
			warn = true
		}
		if strings.Contains(in.Text, "materiałów") {
			materials = true
		}
		if strings.HasPrefix(in.Text, "Różnica") {
			t.Fatalf("10%% spread should not be flagged")
		}
	}
	if !warn || !materials {
		t.Fatalf("insights = %+v", c.Insights)
	}
}

func TestSelectForComparison(t *testing.T) {
	all := []Estimate{est("a", "A", 1), est("b", "B", 2), est("c", "C", 3), est("d", "D", 4)}

	if got := SelectForComparison(all, nil); len(got) != 3 || got[2].ID != "c" {
		t.Fatalf("default selection = %v", got)
	}
	got := SelectForComparison(all, []string{"d", "x", "d", "a", "b", "c"})
	if len(got) != 3 || got[0].ID != "d" || got[1].ID != "a" || got[2].ID != "b" {
		t.Fatalf("explicit selection = %v", got)
	}
}
