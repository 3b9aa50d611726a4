package core

import (
	"fmt"
	"math"
	"strings"
)

const (
	// MaxCompared is how many estimates can be compared side by side.
	MaxCompared = 3
	// PriceSpreadThreshold is the lowest-to-highest spread, in percent,
	// above which the comparison flags the offers for clarification.
	PriceSpreadThreshold = 20.0
	// MaterialsCategory marks estimate items that cover materials.
	MaterialsCategory = "materiały"
)

type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightSuccess InsightType = "success"
)

type Insight struct {
	Type InsightType `json:"type"`
	Text string      `json:"text"`
}

// ComparedEstimate is one column of the comparison.
type ComparedEstimate struct {
	Estimate     Estimate `json:"estimate"`
	IsLowest     bool     `json:"isLowest"`
	IsHighest    bool     `json:"isHighest"`
	PercentAbove int      `json:"percentAboveLowest"`
	MissingItems []string `json:"missingItems,omitempty"`
}

type Comparison struct {
	// NeedsMoreEstimates is set when the section has fewer than two
	// estimates; the remaining fields are then empty.
	NeedsMoreEstimates bool               `json:"needsMoreEstimates"`
	Selected           []ComparedEstimate `json:"selected"`
	Lowest             Money              `json:"lowest"`
	Highest            Money              `json:"highest"`
	Average            Money              `json:"average"`
	Insights           []Insight          `json:"insights"`
}

// SelectForComparison applies the selection rules: with no explicit ids the
// first MaxCompared estimates are taken; otherwise ids are toggled on in
// order and anything past MaxCompared is ignored. Unknown ids are skipped.
func SelectForComparison(all []Estimate, ids []string) []Estimate {
	if len(ids) == 0 {
		n := min(len(all), MaxCompared)
		return append([]Estimate(nil), all[:n]...)
	}
	byID := make(map[string]Estimate, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}
	var out []Estimate
	seen := make(map[string]bool)
	for _, id := range ids {
		if len(out) == MaxCompared {
			break
		}
		e, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, e)
	}
	return out
}

// Compare builds the side-by-side comparison of the selected estimates.
// total is the number of estimates available in the section.
func Compare(selected []Estimate, total int) Comparison {
	if total < 2 {
		return Comparison{NeedsMoreEstimates: true}
	}
	if len(selected) == 0 {
		return Comparison{}
	}

	lowest, highest := selected[0].TotalAmount, selected[0].TotalAmount
	var sum int64
	for _, e := range selected {
		if e.TotalAmount.Cents < lowest.Cents {
			lowest = e.TotalAmount
		}
		if e.TotalAmount.Cents > highest.Cents {
			highest = e.TotalAmount
		}
		sum += e.TotalAmount.Cents
	}

	cmp := Comparison{
		Lowest:  lowest,
		Highest: highest,
		Average: Money{Cents: int64(math.Round(float64(sum) / float64(len(selected))))},
	}

	allNames := make([]string, 0)
	nameSeen := make(map[string]bool)
	for _, e := range selected {
		for _, it := range e.Items {
			n := strings.ToLower(strings.TrimSpace(it.Name))
			if n == "" || nameSeen[n] {
				continue
			}
			nameSeen[n] = true
			allNames = append(allNames, n)
		}
	}

	for _, e := range selected {
		ce := ComparedEstimate{
			Estimate:  e,
			IsLowest:  e.TotalAmount == lowest,
			IsHighest: e.TotalAmount == highest,
		}
		if !ce.IsLowest {
			ce.PercentAbove = percent(e.TotalAmount.Cents-lowest.Cents, lowest.Cents)
		}

		own := make(map[string]bool, len(e.Items))
		for _, it := range e.Items {
			own[strings.ToLower(strings.TrimSpace(it.Name))] = true
		}
		for _, n := range allNames {
			if !own[n] {
				ce.MissingItems = append(ce.MissingItems, n)
			}
		}
		if len(ce.MissingItems) > 0 {
			shown := ce.MissingItems[:min(2, len(ce.MissingItems))]
			cmp.Insights = append(cmp.Insights, Insight{
				Type: InsightWarning,
				Text: fmt.Sprintf("%s nie uwzględnia: %s", e.ContractorName, strings.Join(shown, ", ")),
			})
		}
		cmp.Selected = append(cmp.Selected, ce)
	}

	if lowest.Cents > 0 {
		spread := float64(highest.Cents-lowest.Cents) / float64(lowest.Cents) * 100
		if spread > PriceSpreadThreshold {
			cmp.Insights = append(cmp.Insights, Insight{
				Type: InsightInfo,
				Text: fmt.Sprintf("Różnica między ofertami wynosi %.0f%% - zapytaj o szczegóły", spread),
			})
		}
	}

	for _, e := range selected {
		if !hasMaterials(e) {
			cmp.Insights = append(cmp.Insights, Insight{
				Type: InsightWarning,
				Text: "Niektóre wyceny mogą nie zawierać materiałów - potwierdź z wykonawcą",
			})
			break
		}
	}

	return cmp
}

func hasMaterials(e Estimate) bool {
	for _, it := range e.Items {
		if strings.EqualFold(it.Category, MaterialsCategory) {
			return true
		}
	}
	return false
}
