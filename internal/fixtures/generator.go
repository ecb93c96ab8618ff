package fixtures

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"

	"github.com/okian/motorgen/internal/domain/model"
)

// Boats is the number of boats in one race.
const Boats = 6

// replaceAfter is the earliest meeting index that may carry a
// replacement, so replacements are far from the first observation.
const replaceAfter = 20

// Race table columns, matching the default configuration.
var RaceColumns = []string{"race_id", "date", "code", "motor_number", "section_id", "entry", "rank", "ST", "ST_tenji"} //nolint:gochecknoglobals // column layout

// Document is one generated ranking page.
type Document struct {
	Name string
	Date model.Date
	// Venue is the 2-digit venue code.
	Venue string
	Body  []byte
}

// Archive is a generated data set.
type Archive struct {
	Documents []Document
	Races     *model.Table
	// Replacements holds, per slot, the first day its new motor shows a
	// zero two-place rate.
	Replacements map[model.Slot]model.Date
	// VoidRaces lists races carrying a void token.
	VoidRaces []string
}

type slotState struct {
	rate      float64
	replaceAt int // meeting index, -1 for none
}

// Generate builds an archive from cfg.
func Generate(cfg Config) *Archive {
	cfg = cfg.normalized()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	a := &Archive{
		Races:        model.NewTable("races", RaceColumns...),
		Replacements: map[model.Slot]model.Date{},
	}
	for _, venue := range cfg.Venues {
		slots := make([]slotState, cfg.Motors+1)
		for m := 1; m <= cfg.Motors; m++ {
			slots[m] = slotState{rate: 20 + rng.Float64()*30, replaceAt: -1}
			if cfg.Sections > replaceAfter+2 && rng.Float64() < cfg.ReplaceProb {
				k := replaceAfter + rng.IntN(cfg.Sections-replaceAfter-1)
				slots[m].replaceAt = k
				a.Replacements[model.Slot{Venue: venue, MotorNumber: m}] = cfg.Start.AddDays(k * cfg.SectionEvery)
			}
		}
		for k := 0; k < cfg.Sections; k++ {
			start := cfg.Start.AddDays(k * cfg.SectionEvery)
			rates := make([]float64, cfg.Motors+1)
			for m := 1; m <= cfg.Motors; m++ {
				rates[m] = nextRate(rng, &slots[m], k)
			}
			a.Documents = append(a.Documents, page(cfg, start, venue, rates, rng))
			sectionID := start.Compact() + "_" + strconv.Itoa(k%9+1)
			for d := 0; d < cfg.SectionDays; d++ {
				day := start.AddDays(d)
				for r := 1; r <= cfg.RacesPerDay; r++ {
					a.race(cfg, rng, day, venue, r, sectionID)
				}
			}
		}
	}
	sort.Slice(a.Documents, func(i, j int) bool { return a.Documents[i].Name < a.Documents[j].Name })
	return a
}

// nextRate returns the slot's rate for meeting k. The meeting of a
// replacement and the one after read zero; the new motor then climbs.
func nextRate(rng *rand.Rand, s *slotState, k int) float64 {
	switch {
	case s.replaceAt >= 0 && (k == s.replaceAt || k == s.replaceAt+1):
		s.rate = 0
	case s.replaceAt >= 0 && k == s.replaceAt+2:
		s.rate = 5 + rng.Float64()*5
	default:
		s.rate += rng.Float64()*6 - 3
		s.rate = min(max(s.rate, 5), 70)
	}
	return s.rate
}

func (a *Archive) race(cfg Config, rng *rand.Rand, day model.Date, venue string, num int, sectionID string) {
	raceID := fmt.Sprintf("%s%s%02d", day.Compact(), venue, num)
	motors := rng.Perm(cfg.Motors)[:Boats]
	finish := rng.Perm(Boats)
	void := rng.Float64() < cfg.VoidProb
	if void {
		a.VoidRaces = append(a.VoidRaces, raceID)
	}
	for i := 0; i < Boats; i++ {
		rank := strconv.Itoa(finish[i] + 1)
		st := fmt.Sprintf(".%02d", 5+rng.IntN(20))
		switch {
		case void && i == 0:
			rank = "＿"
		case rng.Float64() < 0.01:
			rank, st = "F", "F.01"
		case rng.Float64() < 0.01:
			rank, st = "欠", ""
		}
		tenji := fmt.Sprintf("0.%02d", 5+rng.IntN(20))
		if rng.Float64() < 0.01 {
			tenji = "L"
		}
		a.Races.Append([]string{
			raceID,
			day.Compact(),
			strings.TrimLeft(venue, "0"),
			strconv.Itoa(motors[i] + 1),
			sectionID,
			strconv.Itoa(i + 1),
			rank,
			st,
			tenji,
		})
	}
}

func page(cfg Config, date model.Date, venue string, rates []float64, rng *rand.Rand) Document {
	order := make([]int, 0, len(rates)-1)
	for m := 1; m < len(rates); m++ {
		order = append(order, m)
	}
	sort.SliceStable(order, func(i, j int) bool { return rates[order[i]] > rates[order[j]] })

	meta := "utf-8"
	if cfg.ShiftJIS {
		meta = "Shift_JIS"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html><head><meta charset=\"%s\"><title>モーターランキング %s</title></head>\n<body>\n", meta, venue)
	b.WriteString("<table>\n<thead>\n")
	b.WriteString("<tr><th rowspan=\"2\">順位</th><th colspan=\"2\">モーター</th><th colspan=\"2\">ボート</th><th rowspan=\"2\">前検タイム</th></tr>\n")
	b.WriteString("<tr><th>番号</th><th>2連対率</th><th>番号</th><th>2連対率</th></tr>\n")
	b.WriteString("</thead>\n<tbody>\n")
	for pos, m := range order {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%d</td><td>%.1f%%</td><td>%d</td><td>%.1f%%</td><td>%.2f</td></tr>\n",
			pos+1, m, rates[m], 100+m, 10+rng.Float64()*40, 6.6+rng.Float64()*0.4)
	}
	b.WriteString("</tbody>\n</table>\n</body></html>\n")

	body := b.Bytes()
	if cfg.ShiftJIS {
		enc, err := japanese.ShiftJIS.NewEncoder().Bytes(body)
		if err == nil {
			body = enc
		}
	}
	return Document{
		Name:  "rankingmotor" + date.Compact() + venue + ".bin",
		Date:  date,
		Venue: venue,
		Body:  body,
	}
}
