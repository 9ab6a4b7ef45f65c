package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Column names in the historical CSV exports.
const (
	colCropType = "Crop_Type"

	colState     = "STATE"
	colDistrict  = "District Name"
	colMarket    = "Market Name"
	colCommodity = "Commodity"
	colVariety   = "Variety"
	colGrade     = "Grade"
	colMinPrice  = "Min_Price"
	colMaxPrice  = "Max_Price"
	colModal     = "Modal_Price"
	colPriceDate = "Price Date"
)

// CropDataset is what the crop yield history contributes to the artifact.
type CropDataset struct {
	SoilTypes    []string
	CropTypes    []string
	SoilAverages map[string]map[string]float64
}

type csvTable struct {
	index map[string]int
	r     *csv.Reader
	line  int
}

func newCSVTable(r io.Reader, required ...string) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return &csvTable{index: index, r: cr, line: 1}, nil
}

// next returns the next row, or io.EOF.
func (t *csvTable) next() ([]string, error) {
	row, err := t.r.Read()
	t.line++
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", t.line, err)
	}
	return row, nil
}

func (t *csvTable) str(row []string, col string) string {
	return strings.TrimSpace(row[t.index[col]])
}

func (t *csvTable) float(row []string, col string) (float64, error) {
	s := t.str(row, col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %q: %w", t.line, col, err)
	}
	return v, nil
}

// LoadCropDataset reads the crop yield history and computes, per soil type,
// the arithmetic mean of every field in SoilFields.
func LoadCropDataset(r io.Reader) (*CropDataset, error) {
	required := append([]string{FieldSoilType, colCropType}, SoilFields...)
	t, err := newCSVTable(r, required...)
	if err != nil {
		return nil, fmt.Errorf("crop dataset: %w", err)
	}

	sums := make(map[string]map[string]float64)
	counts := make(map[string]int)
	var soils, crops []string

	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("crop dataset: %w", err)
		}

		soil := t.str(row, FieldSoilType)
		soils = append(soils, soil)
		crops = append(crops, t.str(row, colCropType))

		acc, ok := sums[soil]
		if !ok {
			acc = make(map[string]float64, len(SoilFields))
			sums[soil] = acc
		}
		for _, f := range SoilFields {
			v, err := t.float(row, f)
			if err != nil {
				return nil, fmt.Errorf("crop dataset: %w", err)
			}
			acc[f] += v
		}
		counts[soil]++
	}
	if len(counts) == 0 {
		return nil, errors.New("crop dataset: no rows")
	}

	avgs := make(map[string]map[string]float64, len(sums))
	for soil, acc := range sums {
		n := float64(counts[soil])
		row := make(map[string]float64, len(acc))
		for f, sum := range acc {
			row[f] = sum / n
		}
		avgs[soil] = row
	}

	return &CropDataset{
		SoilTypes:    NewVocabulary(VocabSoilType, soils).Categories(),
		CropTypes:    NewVocabulary(VocabCropType, crops).Categories(),
		SoilAverages: avgs,
	}, nil
}

// LoadMandiDataset reads the market price history.
func LoadMandiDataset(r io.Reader) ([]PriceObservation, error) {
	t, err := newCSVTable(r,
		colState, colDistrict, colMarket, colCommodity, colVariety, colGrade,
		colMinPrice, colMaxPrice, colModal, colPriceDate)
	if err != nil {
		return nil, fmt.Errorf("mandi dataset: %w", err)
	}

	var obs []PriceObservation
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mandi dataset: %w", err)
		}

		date, err := time.Parse(DateLayout, t.str(row, colPriceDate))
		if err != nil {
			return nil, fmt.Errorf("mandi dataset: line %d: %w", t.line, ErrInvalidDate)
		}
		o := PriceObservation{
			State:     t.str(row, colState),
			District:  t.str(row, colDistrict),
			Market:    t.str(row, colMarket),
			Commodity: t.str(row, colCommodity),
			Variety:   t.str(row, colVariety),
			Grade:     t.str(row, colGrade),
			Date:      date,
		}
		if o.Min, err = t.float(row, colMinPrice); err != nil {
			return nil, fmt.Errorf("mandi dataset: %w", err)
		}
		if o.Max, err = t.float(row, colMaxPrice); err != nil {
			return nil, fmt.Errorf("mandi dataset: %w", err)
		}
		if o.Modal, err = t.float(row, colModal); err != nil {
			return nil, fmt.Errorf("mandi dataset: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}
