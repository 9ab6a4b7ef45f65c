package features

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ArtifactVersion is bumped whenever the artifact layout or the encoding
// rules change. Readers reject any other version.
const ArtifactVersion = 1

// Artifact is the persisted output of fitting the historical datasets. The
// same file is read by training and serving so category codes agree.
type Artifact struct {
	Version       int                           `json:"version"`
	BuiltAt       time.Time                     `json:"built_at"`
	Vocabularies  map[string][]string           `json:"vocabularies"`
	AverageFields []string                      `json:"average_fields"`
	SoilAverages  map[string]map[string]float64 `json:"soil_averages"`
	PriceHistory  []PriceObservation            `json:"price_history"`
}

// Fit builds an artifact from the crop and mandi datasets. Either may be nil
// when that part of the service is not deployed.
func Fit(crop io.Reader, mandi io.Reader, now time.Time) (*Artifact, error) {
	a := &Artifact{
		Version:       ArtifactVersion,
		BuiltAt:       now.UTC(),
		Vocabularies:  map[string][]string{VocabSeason: NewVocabulary(VocabSeason, Seasons).Categories()},
		AverageFields: append([]string(nil), SoilFields...),
		SoilAverages:  map[string]map[string]float64{},
	}

	if crop != nil {
		ds, err := LoadCropDataset(crop)
		if err != nil {
			return nil, err
		}
		a.Vocabularies[VocabSoilType] = ds.SoilTypes
		a.Vocabularies[VocabCropType] = ds.CropTypes
		a.SoilAverages = ds.SoilAverages
	}

	if mandi != nil {
		obs, err := LoadMandiDataset(mandi)
		if err != nil {
			return nil, err
		}
		cols := map[string][]string{}
		for _, o := range obs {
			cols[VocabState] = append(cols[VocabState], o.State)
			cols[VocabDistrict] = append(cols[VocabDistrict], o.District)
			cols[VocabMarket] = append(cols[VocabMarket], o.Market)
			cols[VocabCommodity] = append(cols[VocabCommodity], o.Commodity)
			cols[VocabVariety] = append(cols[VocabVariety], o.Variety)
			cols[VocabGrade] = append(cols[VocabGrade], o.Grade)
		}
		for name, values := range cols {
			a.Vocabularies[name] = NewVocabulary(name, values).Categories()
		}
		a.PriceHistory = NewPriceHistory(obs).Observations()
	}

	return a, nil
}

// Tables builds the immutable serving handles described by the artifact.
func (a *Artifact) Tables() (*Tables, error) {
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("feature artifact version %d, want %d", a.Version, ArtifactVersion)
	}

	vocabs := make(Vocabularies, len(a.Vocabularies))
	for name, cats := range a.Vocabularies {
		vocabs[name] = NewVocabulary(name, cats)
	}
	if _, ok := vocabs[VocabSeason]; !ok {
		vocabs[VocabSeason] = NewVocabulary(VocabSeason, Seasons)
	}

	avgs, err := NewAverageTable(a.AverageFields, a.SoilAverages)
	if err != nil {
		return nil, fmt.Errorf("feature artifact: %w", err)
	}

	return &Tables{
		Vocabularies: vocabs,
		SoilAverages: avgs,
		Prices:       NewPriceHistory(a.PriceHistory),
	}, nil
}

func (a *Artifact) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func ReadArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to parse feature artifact: %w", err)
	}
	return &a, nil
}

func LoadArtifactFile(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature artifact: %w", err)
	}
	defer f.Close()
	return ReadArtifact(f)
}

func (a *Artifact) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create feature artifact: %w", err)
	}
	if err := a.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write feature artifact: %w", err)
	}
	return f.Close()
}

// FitFiles runs Fit over dataset files. An empty path skips that dataset.
func FitFiles(cropPath, mandiPath string, now time.Time) (*Artifact, error) {
	var crop, mandi io.Reader
	if cropPath != "" {
		f, err := os.Open(cropPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open crop dataset: %w", err)
		}
		defer f.Close()
		crop = f
	}
	if mandiPath != "" {
		f, err := os.Open(mandiPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open mandi dataset: %w", err)
		}
		defer f.Close()
		mandi = f
	}
	return Fit(crop, mandi, now)
}
