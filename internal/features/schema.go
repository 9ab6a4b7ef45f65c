package features

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Numeric Kind = iota
	// Categorical fields carry the raw string and are encoded through
	// Field.Vocabulary only when the vector is converted to a tensor.
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

type Field struct {
	Name       string
	Kind       Kind
	Vocabulary string
}

// Schema is the ordered input layout a model was trained on.
type Schema struct {
	Name   string
	Fields []Field
}

func (s *Schema) Len() int { return len(s.Fields) }

func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func Num(v float64) Value { return Value{Kind: Numeric, Num: v} }

func Str(s string) Value { return Value{Kind: Categorical, Str: s} }

// Record is an unordered bag of named values. Only Schema.Assemble fixes order.
type Record map[string]Value

// Vector is a record laid out in schema order.
type Vector struct {
	Schema *Schema
	Values []Value
}

// Assemble lays out r in schema order. Fields absent from r, or present
// with the wrong kind, fail with ErrSchemaMismatch. Extra fields are ignored.
func (s *Schema) Assemble(r Record) (Vector, error) {
	var missing []string
	values := make([]Value, len(s.Fields))
	for i, f := range s.Fields {
		v, ok := r[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if v.Kind != f.Kind {
			return Vector{}, fmt.Errorf("%s: field %q is %s, want %s: %w", s.Name, f.Name, v.Kind, f.Kind, ErrSchemaMismatch)
		}
		values[i] = v
	}
	if len(missing) > 0 {
		return Vector{}, fmt.Errorf("%s: missing fields %s: %w", s.Name, strings.Join(missing, ", "), ErrSchemaMismatch)
	}
	return Vector{Schema: s, Values: values}, nil
}

// Float32 converts the vector to model input, encoding categorical values
// through their vocabularies.
func (v Vector) Float32(vocabs Vocabularies) ([]float32, error) {
	out := make([]float32, len(v.Values))
	for i, val := range v.Values {
		f := v.Schema.Fields[i]
		if f.Kind == Numeric {
			out[i] = float32(val.Num)
			continue
		}
		code, err := vocabs.Encode(f.Vocabulary, val.Str)
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", v.Schema.Name, f.Name, err)
		}
		out[i] = float32(code)
	}
	return out, nil
}

const (
	FieldSoilType    = "Soil_Type"
	FieldSoilPH      = "Soil_pH"
	FieldTemperature = "Temperature"
	FieldHumidity    = "Humidity"
	FieldN           = "N"
	FieldP           = "P"
	FieldK           = "K"
	FieldSoilQuality = "Soil_Quality"
	FieldMonth       = "Month"
	FieldSeasonEnc   = "Season_enc"
)

// SoilFields are the numeric crop inputs that fall back to soil-type averages.
var SoilFields = []string{
	FieldSoilPH, FieldTemperature, FieldHumidity,
	FieldN, FieldP, FieldK, FieldSoilQuality,
}

const (
	VocabSoilType  = "soil_type"
	VocabSeason    = "season"
	VocabCropType  = "crop_type"
	VocabState     = "state"
	VocabDistrict  = "district"
	VocabMarket    = "market"
	VocabCommodity = "commodity"
	VocabVariety   = "variety"
	VocabGrade     = "grade"
)

var CropRecommendationSchema = &Schema{
	Name: "crop_recommendation",
	Fields: []Field{
		{Name: FieldSoilType, Kind: Categorical, Vocabulary: VocabSoilType},
		{Name: FieldSoilPH},
		{Name: FieldTemperature},
		{Name: FieldHumidity},
		{Name: FieldN},
		{Name: FieldP},
		{Name: FieldK},
		{Name: FieldSoilQuality},
		{Name: FieldMonth},
		{Name: FieldSeasonEnc},
	},
}

// MandiPriceSchema is shared by the min, max and modal price regressors.
// Category columns are already encoded when the record is built.
var MandiPriceSchema = &Schema{
	Name: "mandi_price",
	Fields: []Field{
		{Name: "STATE"},
		{Name: "District Name"},
		{Name: "Market Name"},
		{Name: "Commodity"},
		{Name: "Variety"},
		{Name: "Grade"},
		{Name: "Year"},
		{Name: "Month"},
		{Name: "Day"},
		{Name: "DayOfWeek"},
		{Name: "WeekOfYear"},
		{Name: FieldSeasonEnc},
		{Name: "Min_Price_lag1"},
		{Name: "Min_Price_lag2"},
		{Name: "Min_Price_lag3"},
		{Name: "Max_Price_lag1"},
		{Name: "Max_Price_lag2"},
		{Name: "Max_Price_lag3"},
		{Name: "Modal_Price_lag1"},
		{Name: "Modal_Price_lag2"},
		{Name: "Modal_Price_lag3"},
	},
}
