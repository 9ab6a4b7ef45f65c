package features

import (
	"fmt"
	"strings"
	"time"
)

// Tables is the read-only state the pipeline needs at serve time. It is
// built once at startup and shared by every request.
type Tables struct {
	Vocabularies Vocabularies
	SoilAverages *AverageTable
	Prices       *PriceHistory
}

// CropInput is a crop recommendation request. Nil values fall back to the
// soil type's historical averages.
type CropInput struct {
	SoilType string
	Month    int
	Values   map[string]*float64
}

// CropRecord resolves defaults and derives the season for a crop request.
func (t *Tables) CropRecord(in CropInput) (Record, error) {
	if _, err := t.Vocabularies.Encode(VocabSoilType, in.SoilType); err != nil {
		return nil, err
	}
	if in.Month < 1 || in.Month > 12 {
		return nil, fmt.Errorf("month %d out of range: %w", in.Month, ErrInvalidDate)
	}

	resolved, err := t.SoilAverages.Resolve(in.SoilType, in.Values)
	if err != nil {
		return nil, err
	}
	season, err := t.Vocabularies.Encode(VocabSeason, string(SeasonOf(time.Month(in.Month))))
	if err != nil {
		return nil, err
	}

	r := Record{
		FieldSoilType:  Str(in.SoilType),
		FieldMonth:     Num(float64(in.Month)),
		FieldSeasonEnc: Num(float64(season)),
	}
	for _, f := range SoilFields {
		v, ok := resolved[f]
		if !ok {
			return nil, fmt.Errorf("soil averages lack %q: %w", f, ErrSchemaMismatch)
		}
		r[f] = Num(v)
	}
	return r, nil
}

// MandiInput is a price prediction request. Variety and Grade default to
// the most recent observation at the market; Date defaults to today.
type MandiInput struct {
	State     string
	District  string
	Market    string
	Commodity string
	Variety   string
	Grade     string
	Date      string
}

// MandiFeatures is the prepared record plus the values resolved for it.
type MandiFeatures struct {
	Record  Record
	Variety string
	Grade   string
	Date    time.Time
}

func (t *Tables) MandiRecord(in MandiInput, now func() time.Time) (*MandiFeatures, error) {
	date, err := ParseDate(in.Date, now)
	if err != nil {
		return nil, err
	}

	key := MarketKey{
		State:     strings.TrimSpace(in.State),
		District:  strings.TrimSpace(in.District),
		Market:    strings.TrimSpace(in.Market),
		Commodity: strings.TrimSpace(in.Commodity),
	}
	variety, grade := strings.TrimSpace(in.Variety), strings.TrimSpace(in.Grade)

	r := Record{}
	for _, c := range []struct{ field, vocab, value string }{
		{"STATE", VocabState, key.State},
		{"District Name", VocabDistrict, key.District},
		{"Market Name", VocabMarket, key.Market},
		{"Commodity", VocabCommodity, key.Commodity},
	} {
		code, err := t.Vocabularies.Encode(c.vocab, c.value)
		if err != nil {
			return nil, err
		}
		r[c.field] = Num(float64(code))
	}

	if variety == "" || grade == "" {
		latest, err := t.Prices.Latest(key)
		if err != nil {
			return nil, err
		}
		if variety == "" {
			variety = latest.Variety
		}
		if grade == "" {
			grade = latest.Grade
		}
	}
	varietyCode, err := t.Vocabularies.Encode(VocabVariety, variety)
	if err != nil {
		return nil, err
	}
	gradeCode, err := t.Vocabularies.Encode(VocabGrade, grade)
	if err != nil {
		return nil, err
	}
	r["Variety"] = Num(float64(varietyCode))
	r["Grade"] = Num(float64(gradeCode))

	tf := Extract(date)
	season, err := t.Vocabularies.Encode(VocabSeason, string(tf.Season))
	if err != nil {
		return nil, err
	}
	r["Year"] = Num(float64(tf.Year))
	r["Month"] = Num(float64(tf.Month))
	r["Day"] = Num(float64(tf.Day))
	r["DayOfWeek"] = Num(float64(tf.DayOfWeek))
	r["WeekOfYear"] = Num(float64(tf.WeekOfYear))
	r[FieldSeasonEnc] = Num(float64(season))

	lags, err := t.Prices.Lags(key, variety, grade, date, LagDepth)
	if err != nil {
		return nil, err
	}
	for i := 0; i < LagDepth; i++ {
		n := i + 1
		r[fmt.Sprintf("Min_Price_lag%d", n)] = Num(lags.Min[i])
		r[fmt.Sprintf("Max_Price_lag%d", n)] = Num(lags.Max[i])
		r[fmt.Sprintf("Modal_Price_lag%d", n)] = Num(lags.Modal[i])
	}

	return &MandiFeatures{Record: r, Variety: variety, Grade: grade, Date: date}, nil
}
