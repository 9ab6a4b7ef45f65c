package features

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownCategory is returned when a value is outside a fitted vocabulary
	// or a category key has no historical row.
	ErrUnknownCategory = errors.New("category not recognized")
	// ErrSchemaMismatch is returned when a record does not satisfy a model schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// Vocabulary maps a fixed set of category strings to codes 0..N-1.
// Categories are sorted byte-wise ascending, so the same input set always
// yields the same codes regardless of the order rows were read in.
type Vocabulary struct {
	name  string
	order []string
	codes map[string]int
}

// NewVocabulary fits a vocabulary over categories. Duplicates are dropped.
func NewVocabulary(name string, categories []string) *Vocabulary {
	seen := make(map[string]struct{}, len(categories))
	order := make([]string, 0, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		order = append(order, c)
	}
	sort.Strings(order)

	codes := make(map[string]int, len(order))
	for i, c := range order {
		codes[c] = i
	}

	return &Vocabulary{name: name, order: order, codes: codes}
}

func (v *Vocabulary) Name() string { return v.name }

func (v *Vocabulary) Len() int { return len(v.order) }

// Categories returns a copy of the categories in code order.
func (v *Vocabulary) Categories() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

func (v *Vocabulary) Contains(category string) bool {
	_, ok := v.codes[category]
	return ok
}

func (v *Vocabulary) Encode(category string) (int, error) {
	code, ok := v.codes[category]
	if !ok {
		return 0, fmt.Errorf("%s %q: %w", v.name, category, ErrUnknownCategory)
	}
	return code, nil
}

func (v *Vocabulary) Decode(code int) (string, error) {
	if code < 0 || code >= len(v.order) {
		return "", fmt.Errorf("%s code %d: %w", v.name, code, ErrUnknownCategory)
	}
	return v.order[code], nil
}

// Vocabularies indexes vocabularies by name.
type Vocabularies map[string]*Vocabulary

func (vs Vocabularies) Get(name string) (*Vocabulary, error) {
	v, ok := vs[name]
	if !ok {
		return nil, fmt.Errorf("vocabulary %q not loaded", name)
	}
	return v, nil
}

// Encode looks up the named vocabulary and encodes category with it.
func (vs Vocabularies) Encode(name, category string) (int, error) {
	v, err := vs.Get(name)
	if err != nil {
		return 0, err
	}
	return v.Encode(category)
}
