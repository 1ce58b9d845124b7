package ratetable

import (
	"encoding/json"
	"net/http"
)

type categoryRatesDTO struct {
	Category Category  `json:"category"`
	Brackets []Bracket `json:"brackets"`
}

type ratesDTO struct {
	LevelPercents []int64            `json:"levelPercents"`
	Categories    []categoryRatesDTO `json:"categories"`
}

// Rates handles GET /rates. The table is compiled in, so the endpoint
// is open and read-only.
func Rates(w http.ResponseWriter, r *http.Request) {
	out := ratesDTO{LevelPercents: LevelPercents}
	for _, c := range Categories() {
		brackets, err := Brackets(c)
		if err != nil {
			continue
		}
		out.Categories = append(out.Categories, categoryRatesDTO{Category: c, Brackets: brackets})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
