package features_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agriml-api/internal/features"
)

func TestVocabulary_SortedCodes(t *testing.T) {
	v := features.NewVocabulary("soil_type", []string{"Sandy", "Loamy", "Clay", "Loamy", "Peaty"})

	assert.Equal(t, 4, v.Len())
	assert.Equal(t, []string{"Clay", "Loamy", "Peaty", "Sandy"}, v.Categories())

	code, err := v.Encode("Loamy")
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestVocabulary_OrderIndependent(t *testing.T) {
	a := features.NewVocabulary("x", []string{"b", "a", "c"})
	b := features.NewVocabulary("x", []string{"c", "b", "a", "a"})

	assert.Equal(t, a.Categories(), b.Categories())
}

func TestVocabulary_RoundTrip(t *testing.T) {
	v := features.NewVocabulary("crop_type", []string{"Wheat", "Rice", "Maize", "Barley", "Cotton"})

	seen := map[int]bool{}
	for _, c := range v.Categories() {
		code, err := v.Encode(c)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true

		back, err := v.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, c, back)
	}
	assert.Len(t, seen, v.Len())
}

func TestVocabulary_Unknown(t *testing.T) {
	v := features.NewVocabulary("soil_type", []string{"Loamy"})

	_, err := v.Encode("Plasticine")
	assert.ErrorIs(t, err, features.ErrUnknownCategory)

	_, err = v.Decode(5)
	assert.ErrorIs(t, err, features.ErrUnknownCategory)
	_, err = v.Decode(-1)
	assert.ErrorIs(t, err, features.ErrUnknownCategory)
}

func TestVocabularies_MissingVocabulary(t *testing.T) {
	vs := features.Vocabularies{}
	_, err := vs.Encode("state", "Punjab")
	assert.Error(t, err)
}

func TestSeasonVocabulary(t *testing.T) {
	v := features.NewVocabulary("season", features.Seasons)
	assert.Equal(t, []string{"Autumn", "Spring", "Summer", "Winter"}, v.Categories())
}

func TestSeasonOf(t *testing.T) {
	want := map[time.Month]features.Season{
		time.January: features.Winter, time.February: features.Winter, time.December: features.Winter,
		time.March: features.Spring, time.April: features.Spring, time.May: features.Spring,
		time.June: features.Summer, time.July: features.Summer, time.August: features.Summer,
		time.September: features.Autumn, time.October: features.Autumn, time.November: features.Autumn,
	}
	for m := time.January; m <= time.December; m++ {
		assert.Equal(t, want[m], features.SeasonOf(m), m.String())
		assert.Equal(t, features.SeasonOf(m), features.SeasonOf(m))
	}
}

func TestExtract_KnownDate(t *testing.T) {
	d, err := features.ParseDate("2024-03-15", time.Now)
	require.NoError(t, err)

	tf := features.Extract(d)
	assert.Equal(t, 2024, tf.Year)
	assert.Equal(t, 3, tf.Month)
	assert.Equal(t, 15, tf.Day)
	assert.Equal(t, 4, tf.DayOfWeek) // Friday
	assert.Equal(t, 11, tf.WeekOfYear)
	assert.Equal(t, features.Spring, tf.Season)
}

func TestExtract_EveryDayHasSeason(t *testing.T) {
	valid := map[features.Season]bool{
		features.Winter: true, features.Spring: true, features.Summer: true, features.Autumn: true,
	}
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() == 2023; d = d.AddDate(0, 0, 1) {
		tf := features.Extract(d)
		assert.True(t, valid[tf.Season])
		assert.GreaterOrEqual(t, tf.DayOfWeek, 0)
		assert.LessOrEqual(t, tf.DayOfWeek, 6)
	}
}

func TestParseDate(t *testing.T) {
	fixed := time.Date(2025, time.July, 4, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return fixed }

	got, err := features.ParseDate("", now)
	require.NoError(t, err)
	assert.Equal(t, fixed, got)

	_, err = features.ParseDate("15/03/2024", now)
	assert.ErrorIs(t, err, features.ErrInvalidDate)

	_, err = features.ParseDate("2024-02-30", now)
	assert.ErrorIs(t, err, features.ErrInvalidDate)
}
