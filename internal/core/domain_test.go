package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-15T10:20:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal RFC3339: %v", err)
	}
	if d.String() != "2024-03-15" {
		t.Fatalf("got %s", d)
	}
	if err := json.Unmarshal([]byte(`"2024-03-16"`), &d); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}
	out, _ := json.Marshal(d)
	if string(out) != `"2024-03-16"` {
		t.Fatalf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`"16/03/2024"`), &d); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ProjectID:   "p1",
		SectionID:   "s1",
		Date:        NewDate(2025, 1, 1),
		Description: "Kabel YDY 3x2,5",
		Amount:      Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{ProjectID: "p", SectionID: "s", Date: Date{}, Description: "a", Amount: Money{Cents: 1}}, // zero date
		{ProjectID: "p", SectionID: "s", Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}},
		{ProjectID: "p", SectionID: "s", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}},
		{ProjectID: "p", SectionID: "", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}},
		{ProjectID: "", SectionID: "s", Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}},
		{ProjectID: "p", SectionID: "s", Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", MaxDescriptionLen+1), Amount: Money{Cents: 1}},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %T", i, err)
		}
	}
}

func TestNoteValidate(t *testing.T) {
	n := Note{ProjectID: "p", SectionID: "s", Content: "Gniazdka w kuchni"}
	if err := n.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mediaOnly := Note{ProjectID: "p", SectionID: "s", Media: []MediaAttachment{{Kind: MediaImage, URL: "https://x/1.jpg"}}}
	if err := mediaOnly.Validate(); err != nil {
		t.Fatalf("media-only note should be valid: %v", err)
	}

	empty := Note{ProjectID: "p", SectionID: "s", Content: "   "}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	badMedia := Note{ProjectID: "p", SectionID: "s", Content: "x", Media: []MediaAttachment{{Kind: "gif", URL: "u"}}}
	if err := badMedia.Validate(); !errors.Is(err, ErrInvalidMediaKind) {
		t.Fatalf("expected ErrInvalidMediaKind, got %v", err)
	}

	tooMany := make([]string, MaxTagsPerNote+1)
	for i := range tooMany {
		tooMany[i] = "t"
	}
	if err := (Note{ProjectID: "p", SectionID: "s", Content: "x", Tags: tooMany}).Validate(); err == nil {
		t.Fatalf("expected tag count error")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Kuchnia", "kuchnia", "", "Łazienka "})
	want := []string{"kuchnia", "łazienka"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEstimateValidate(t *testing.T) {
	e := Estimate{ProjectID: "p", SectionID: "s", ContractorName: "ElektroPro", TotalAmount: PLN(32400)}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	e.ContractorName = " "
	if err := e.Validate(); !errors.Is(err, ErrEmptyContractor) {
		t.Fatalf("expected ErrEmptyContractor, got %v", err)
	}
	e.ContractorName = "ok"
	e.Items = []EstimateItem{{Name: ""}}
	if err := e.Validate(); err == nil {
		t.Fatalf("expected item error")
	}
}

func TestEstimateItemNormalize(t *testing.T) {
	it := EstimateItem{Name: "Gniazdko", Quantity: 12, UnitPrice: PLN(45)}.Normalize()
	if it.TotalPrice != PLN(540) {
		t.Fatalf("total = %v", it.TotalPrice)
	}
	kept := EstimateItem{Name: "x", Quantity: 2, UnitPrice: PLN(10), TotalPrice: PLN(15)}.Normalize()
	if kept.TotalPrice != PLN(15) {
		t.Fatalf("explicit total should be kept, got %v", kept.TotalPrice)
	}
}

func TestSectionTypes(t *testing.T) {
	types := SectionTypes()
	if len(types) != 6 || types[0] != SectionPlan || types[5] != SectionCosts {
		t.Fatalf("unexpected order %v", types)
	}
	if SectionType("roof").IsValid() {
		t.Fatalf("roof should be invalid")
	}
	if !SectionElectrical.IsTrade() || SectionCosts.IsTrade() {
		t.Fatalf("trade classification wrong")
	}
}

func TestPropertyDataValidate(t *testing.T) {
	good := PropertyData{Area: 54.5, Year: 1975, Floor: 4, MarketType: MarketSecondary}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []PropertyData{
		{Area: 0, Year: 1975, MarketType: MarketPrimary},
		{Area: 50, Year: 1700, MarketType: MarketPrimary},
		{Area: 50, Year: 2000, Floor: 500, MarketType: MarketPrimary},
		{Area: 50, Year: 2000, MarketType: "rental"},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Project{}.Validate()
	if err == nil || err.Error() != "name: empty name" {
		t.Fatalf("got %v", err)
	}
}
