// Package holidays computes the Brazilian holiday calendar used to exclude
// days from scheduling and reporting. The table combines fixed national,
// state and municipal dates with the movable feasts derived from Easter.
package holidays

import (
	"sort"
	"time"
)

// Scope qualifies which jurisdiction declares the holiday.
type Scope string

const (
	ScopeNational  Scope = "nacional"
	ScopeState     Scope = "estadual"
	ScopeMunicipal Scope = "municipal"
)

// Holiday is a single calendar entry.
type Holiday struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Name  string `json:"name"`
	Scope Scope  `json:"scope"`
}

// Easter returns Easter Sunday for the given year via the anonymous Gauss
// algorithm (valid for the Gregorian calendar).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ForYear returns the full holiday table for a year, sorted by date.
func ForYear(year int) []Holiday {
	easter := Easter(year)
	carnaval := easter.AddDate(0, 0, -47)
	paixao := easter.AddDate(0, 0, -2)
	corpusChristi := easter.AddDate(0, 0, 60)

	yearStr := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")

	list := []Holiday{
		{Date: yearStr + "-01-01", Name: "Confraternização Universal", Scope: ScopeNational},
		{Date: yearStr + "-04-21", Name: "Tiradentes", Scope: ScopeNational},
		{Date: yearStr + "-05-01", Name: "Dia Mundial do Trabalho", Scope: ScopeNational},
		{Date: yearStr + "-05-17", Name: "Instalação do Município", Scope: ScopeMunicipal},
		{Date: yearStr + "-08-15", Name: "Coroação de Nossa Senhora Medianeira", Scope: ScopeMunicipal},
		{Date: yearStr + "-09-07", Name: "Independência do Brasil", Scope: ScopeNational},
		{Date: yearStr + "-09-20", Name: "Revolução Farroupilha", Scope: ScopeState},
		{Date: yearStr + "-10-12", Name: "Nossa Senhora Aparecida", Scope: ScopeNational},
		{Date: yearStr + "-11-02", Name: "Finados", Scope: ScopeNational},
		{Date: yearStr + "-11-15", Name: "Proclamação da República", Scope: ScopeNational},
		{Date: yearStr + "-11-20", Name: "Dia Nacional de Zumbi e da Consciência Negra", Scope: ScopeNational},
		{Date: yearStr + "-12-25", Name: "Natal", Scope: ScopeNational},
		{Date: dayKey(carnaval), Name: "Carnaval", Scope: ScopeNational},
		{Date: dayKey(paixao), Name: "Paixão de Cristo", Scope: ScopeNational},
		{Date: dayKey(corpusChristi), Name: "Corpus Christi", Scope: ScopeMunicipal},
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Date < list[j].Date })
	return list
}

// Lookup returns the computed holiday falling on the given day, if any.
func Lookup(day time.Time) (Holiday, bool) {
	key := dayKey(day.UTC())
	for _, h := range ForYear(day.UTC().Year()) {
		if h.Date == key {
			return h, true
		}
	}
	return Holiday{}, false
}
