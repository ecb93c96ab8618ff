package join

import (
	"database/sql"
	"strconv"

	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/racing"
)

// Output columns appended to the race table.
const (
	ColFinishClass    = "rank_class"
	ColFinishPosition = "finish_position"
	ColIsStart        = "is_start"
	ColStartTiming    = "st_value"
	ColExhibitionST   = "st_tenji_value"
	ColSnapshotID     = "snapshot_id"
	ColMotorRank      = "motor_rank"
	ColPrecheckTime   = "precheck_time"
	ColTwoPlaceRate   = "two_place_rate"
	ColIdentity       = "motor_identity"
	ColDateISO        = "date_iso"
)

// Columns names the race table columns the join reads.
type Columns struct {
	RaceID      string
	Date        string
	Venue       string
	MotorNumber string
	SectionID   string
	Entry       string
	Rank        string

	// optional
	StartTiming      string
	ExhibitionTiming string
}

// Required lists the columns without which no key can be built.
func (c Columns) Required() []string {
	return []string{c.RaceID, c.Date, c.Venue, c.MotorNumber}
}

// Normalize rewrites venue, race id and motor number cells in place:
// venues become two digits, race ids lose scientific notation and motor
// numbers lose a trailing ".0". Unparseable cells are left as they are.
func Normalize(t *model.Table, c Columns) error {
	if err := t.Require(c.Required()...); err != nil {
		return err
	}
	for r := range t.Rows {
		if v, err := racing.NormalizeVenue(t.Get(r, c.Venue)); err == nil {
			t.Set(r, c.Venue, v)
		}
		t.Set(r, c.RaceID, racing.NormalizeRaceID(t.Get(r, c.RaceID)))
		if n, ok := racing.ParseMotorNumber(t.Get(r, c.MotorNumber)); ok {
			t.Set(r, c.MotorNumber, strconv.Itoa(n))
		}
		if c.SectionID != "" && t.Has(c.SectionID) {
			t.Set(r, c.SectionID, racing.NormalizeSectionID(t.Get(r, c.SectionID)))
		}
	}
	return nil
}

// DropVoidRaces removes every row of a race that has at least one void
// finish token. Without a rank column t is returned unchanged.
func DropVoidRaces(t *model.Table, c Columns) (out *model.Table, races, rows int) {
	if !t.Has(c.Rank) {
		return t, 0, 0
	}
	void := map[string]bool{}
	for r := range t.Rows {
		if racing.ParseFinish(t.Get(r, c.Rank)).Class == racing.ClassVoid {
			void[t.Get(r, c.RaceID)] = true
		}
	}
	if len(void) == 0 {
		return t, 0, 0
	}
	out = t.Filter(func(r int) bool { return !void[t.Get(r, c.RaceID)] })
	return out, len(void), t.Len() - out.Len()
}

// Keys builds one join key per row. Rows whose date, venue or motor
// number cannot be parsed get an invalid key.
func Keys(t *model.Table, c Columns) ([]model.RaceKey, error) {
	if err := t.Require(c.Required()...); err != nil {
		return nil, err
	}
	keys := make([]model.RaceKey, t.Len())
	for r := range t.Rows {
		k := model.RaceKey{Row: r, RaceID: t.Get(r, c.RaceID)}
		d, derr := model.ParseDate(t.Get(r, c.Date))
		v, verr := racing.NormalizeVenue(t.Get(r, c.Venue))
		n, ok := racing.ParseMotorNumber(t.Get(r, c.MotorNumber))
		k.Venue = v
		if derr == nil && verr == nil && ok {
			k.Date, k.MotorNumber, k.Valid = d, n, true
		}
		keys[r] = k
	}
	return keys, nil
}

// AnnotateFinish classifies the rank column into finish class, position
// and is_start columns. Timing columns, when present, are parsed into
// seconds. Missing source columns are skipped.
func AnnotateFinish(t *model.Table, c Columns) {
	if t.Has(c.Rank) {
		for _, col := range []string{ColFinishClass, ColFinishPosition, ColIsStart} {
			t.AddColumn(col)
		}
		for r := range t.Rows {
			f := racing.ParseFinish(t.Get(r, c.Rank))
			t.Set(r, ColFinishClass, string(f.Class))
			pos := ""
			if f.IsFinish() {
				pos = strconv.Itoa(f.Position)
			}
			t.Set(r, ColFinishPosition, pos)
			t.Set(r, ColIsStart, strconv.FormatBool(f.IsStart()))
		}
	}
	timing := []struct {
		src, dst   string
		exhibition bool
	}{
		{c.StartTiming, ColStartTiming, false},
		{c.ExhibitionTiming, ColExhibitionST, true},
	}
	for _, tc := range timing {
		if tc.src == "" || !t.Has(tc.src) {
			continue
		}
		t.AddColumn(tc.dst)
		for r := range t.Rows {
			if v, ok := racing.ParseStartTiming(t.Get(r, tc.src), tc.exhibition); ok {
				t.Set(r, tc.dst, formatFloat(v))
			}
		}
	}
}

// AnnotateSnapshots left-joins snapshot rows on (date, venue, motor) and
// returns the number of keys without a match. The first record of a key
// wins.
func AnnotateSnapshots(t *model.Table, keys []model.RaceKey, recs []model.SnapshotRecord) int {
	idx := make(map[model.SnapshotKey]model.SnapshotRecord, len(recs))
	for _, rec := range recs {
		if _, ok := idx[rec.Key()]; !ok {
			idx[rec.Key()] = rec
		}
	}
	for _, col := range []string{ColSnapshotID, ColMotorRank, ColPrecheckTime, ColTwoPlaceRate} {
		t.AddColumn(col)
	}
	unmatched := 0
	for _, k := range keys {
		rec, ok := idx[model.SnapshotKey{Date: k.Date, Venue: k.Venue, MotorNumber: k.MotorNumber}]
		if !k.Valid || !ok {
			unmatched++
			continue
		}
		t.Set(k.Row, ColSnapshotID, rec.SnapshotID())
		t.Set(k.Row, ColMotorRank, formatInt(rec.Rank))
		t.Set(k.Row, ColPrecheckTime, formatNull(rec.PrecheckTime))
		t.Set(k.Row, ColTwoPlaceRate, formatNull(rec.TwoPlaceRate))
	}
	return unmatched
}

// AnnotateIdentities writes motor_identity and date_iso.
func AnnotateIdentities(t *model.Table, keys []model.RaceKey, as []model.Assignment) {
	t.AddColumn(ColIdentity)
	t.AddColumn(ColDateISO)
	for _, a := range as {
		if a.Identity.Valid {
			t.Set(a.Row, ColIdentity, a.Identity.String)
		}
	}
	for _, k := range keys {
		if k.Valid {
			t.Set(k.Row, ColDateISO, k.Date.String())
		}
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func formatInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}
