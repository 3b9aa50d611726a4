// Package advisor holds the rule-based stand-ins for assistant features:
// per-trade questions to ask a contractor and the inspection checklist
// generated from property data.
package advisor

import (
	"fmt"
	"math/rand/v2"

	"remont/internal/core"
)

// OldBuildingYear is the cutoff below which buildings get extra questions
// and checklist items.
const OldBuildingYear = 1990

// Question is a suggested question for a contractor.
type Question struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Why      string `json:"why"`
	Asked    bool   `json:"asked"`
}

var questionBank = map[core.SectionType][]Question{
	core.SectionElectrical: {
		{ID: "1", Question: "Czy instalacja elektryczna spełnia normę PN-HD 60364?", Why: "Norma określa bezpieczeństwo instalacji - kluczowe dla gwarancji"},
		{ID: "2", Question: "Jaka jest grubość przewodów do urządzeń AGD?", Why: "AGD wymaga przewodów min. 2.5mm² dla bezpieczeństwa"},
		{ID: "3", Question: "Ile obwodów powinno być w kuchni?", Why: "Kuchnia wymaga min. 3-4 obwodów (AGD, oświetlenie, gniazdka)"},
		{ID: "4", Question: "Czy wycena zawiera wymianę tablicy rozdzielczej?", Why: "Stara tablica może nie obsłużyć nowych obwodów"},
		{ID: "5", Question: "Jaki jest termin gwarancji na wykonane prace?", Why: "Standardowa gwarancja to min. 2 lata"},
		{ID: "6", Question: "Kto dostarcza materiały - wykonawca czy ja?", Why: "Wpływa na cenę końcową i jakość materiałów"},
		{ID: "7", Question: "Czy instalacja będzie miała uziemienie?", Why: "Uziemienie jest wymagane przez przepisy"},
		{ID: "8", Question: "Czy przewidziane jest oświetlenie awaryjne?", Why: "Wymagane w korytarzach i przy wyjściach"},
		{ID: "9", Question: "Ile gniazdek USB planowanych w pomieszczeniach?", Why: "Wygoda użytkowania - nie wymaga późniejszego dokładania"},
		{ID: "10", Question: "Czy wycena obejmuje protokół odbioru i pomiary?", Why: "Pomiary izolacji i uziemienia są wymagane"},
	},
	core.SectionPlumbing: {
		{ID: "1", Question: "Jaki jest stan pionów wodno-kanalizacyjnych?", Why: "Stare piony mogą wymagać wymiany w całym budynku"},
		{ID: "2", Question: "Jakie ciśnienie wody jest w instalacji?", Why: "Wpływa na dobór armatury i komfort użytkowania"},
		{ID: "3", Question: "Czy wycena obejmuje próbę szczelności?", Why: "Test pod ciśnieniem to podstawa gwarancji"},
		{ID: "4", Question: "Jaki termin gwarancji na szczelność instalacji?", Why: "Min. 3 lata - przecieki mogą pojawić się po czasie"},
		{ID: "5", Question: "Czy planowana jest wymiana zaworów głównych?", Why: "Stare zawory mogą nie trzymać przy awarii"},
		{ID: "6", Question: "Jaki materiał rur będzie użyty?", Why: "PEX, PP czy miedź - różne trwałości i ceny"},
		{ID: "7", Question: "Czy instalacja przewiduje filtr mechaniczny?", Why: "Chroni armaturę przed zanieczyszczeniami"},
		{ID: "8", Question: "Jakie spadki kanalizacji są planowane?", Why: "Min. 2% dla odpływu - zapobiega zatorom"},
		{ID: "9", Question: "Czy bojler/piec wymaga wymiany?", Why: "Stary piec może być nieefektywny energetycznie"},
		{ID: "10", Question: "Czy wycena obejmuje montaż wodomierzy?", Why: "Nowe wodomierze mogą być wymagane przez spółdzielnię"},
	},
	core.SectionCarpentry: {
		{ID: "1", Question: "Jaka jest wilgotność w pomieszczeniach?", Why: "Wpływa na wybór materiałów i aklimatyzację drewna"},
		{ID: "2", Question: "Czy podłogi mają być cyklinowane czy wymieniane?", Why: "Cyklinowanie jest tańsze ale nie zawsze możliwe"},
		{ID: "3", Question: "Jakie certyfikaty mają materiały (FSC, E1)?", Why: "Certyfikaty gwarantują jakość i bezpieczeństwo"},
		{ID: "4", Question: "Czy drzwi będą z ościeżnicą regulowaną?", Why: "Łatwiejszy montaż i korekta po osiadaniu"},
		{ID: "5", Question: "Jaki jest czas aklimatyzacji materiałów?", Why: "Min. 48h - zapobiega deformacji po montażu"},
		{ID: "6", Question: "Czy wycena obejmuje listwy przypodłogowe?", Why: "Często pomijane - dolicz 10-15% do podłóg"},
		{ID: "7", Question: "Jaki typ zamków w drzwiach wewnętrznych?", Why: "Magnetyczne są cichsze i trwalsze"},
		{ID: "8", Question: "Czy futryny będą malowane czy okleinowane?", Why: "Okleinowane są trwalsze ale droższe"},
		{ID: "9", Question: "Jakie progi w drzwiach (obniżone, standardowe)?", Why: "Wpływa na komfort i dostępność"},
		{ID: "10", Question: "Czy jest gwarancja na zawiasy i okucia?", Why: "Zawiasy to element zużywalny - min. 2 lata"},
	},
	core.SectionFinishing: {
		{ID: "1", Question: "Jaki harmonogram prac wykończeniowych?", Why: "Kolejność: gładzie → malowanie → podłogi"},
		{ID: "2", Question: "Ile warstw gładzi będzie nakładanych?", Why: "Min. 2 warstwy dla gładkiej powierzchni"},
		{ID: "3", Question: "Jaki typ farby (lateksowa, akrylowa)?", Why: "Lateksowa jest zmywalna i trwalsza"},
		{ID: "4", Question: "Czy ściany wymagają gruntowania?", Why: "Grunt poprawia przyczepność i zmniejsza zużycie farby"},
		{ID: "5", Question: "Jakie płytki w łazience (rektyfikowane)?", Why: "Rektyfikowane = wąskie fugi, nowocześniejszy wygląd"},
		{ID: "6", Question: "Czy wycena obejmuje izolację pod płytkami?", Why: "Wymagana w strefie prysznica i wanny"},
		{ID: "7", Question: "Jaki typ fugi (epoksydowa, cementowa)?", Why: "Epoksydowa jest droższa ale nie plami się"},
		{ID: "8", Question: "Czy malowanie obejmuje sufity?", Why: "Sufity często wymagane osobno w wycenie"},
		{ID: "9", Question: "Jaka jest tolerancja na nierówności ścian?", Why: "Max 2mm/m - więcej wymaga dodatkowej pracy"},
		{ID: "10", Question: "Czy wykonawca sprząta po zakończeniu prac?", Why: "Sprzątanie poremontowe kosztuje 500-1500 zł"},
	},
}

// Questions returns the question list for a section. yearBuilt personalises
// the list for old buildings; pass 0 when unknown. Plan and costs have no
// questions.
func Questions(section core.SectionType, yearBuilt int) []Question {
	bank := questionBank[section]
	out := make([]Question, 0, len(bank)+1)

	if yearBuilt > 0 && yearBuilt < OldBuildingYear {
		switch section {
		case core.SectionElectrical:
			out = append(out, Question{
				ID:       "old-1",
				Question: "Czy instalacja zawiera przewody aluminiowe?",
				Why:      fmt.Sprintf("Budynek z %d r. może mieć aluminium - wymaga wymiany", yearBuilt),
			})
		case core.SectionPlumbing:
			out = append(out, Question{
				ID:       "old-2",
				Question: "Czy rury są stalowe ocynkowane?",
				Why:      fmt.Sprintf("Stare budynki (%d) mają rury do wymiany", yearBuilt),
			})
		}
	}
	return append(out, bank...)
}

// Shuffle returns a reordered copy with every asked flag cleared. The same
// seed always yields the same order.
func Shuffle(questions []Question, seed uint64) []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	for i := range out {
		out[i].Asked = false
	}
	return out
}
