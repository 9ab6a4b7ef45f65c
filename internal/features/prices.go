package features

import (
	"fmt"
	"sort"
	"time"
)

// LagDepth is how many prior observations feed each price lag group.
const LagDepth = 3

// PriceObservation is one row of the mandi price history.
type PriceObservation struct {
	State     string    `json:"state"`
	District  string    `json:"district"`
	Market    string    `json:"market"`
	Commodity string    `json:"commodity"`
	Variety   string    `json:"variety"`
	Grade     string    `json:"grade"`
	Date      time.Time `json:"date"`
	Min       float64   `json:"min_price"`
	Max       float64   `json:"max_price"`
	Modal     float64   `json:"modal_price"`
}

// MarketKey identifies a commodity traded at one market.
type MarketKey struct {
	State     string
	District  string
	Market    string
	Commodity string
}

func (o PriceObservation) marketKey() MarketKey {
	return MarketKey{State: o.State, District: o.District, Market: o.Market, Commodity: o.Commodity}
}

// Lags holds prior prices, most recent first: Min[0] is Min_Price_lag1.
type Lags struct {
	Min   []float64
	Max   []float64
	Modal []float64
}

// PriceHistory indexes observations per market key, oldest first.
type PriceHistory struct {
	byMarket map[MarketKey][]PriceObservation
	size     int
}

func NewPriceHistory(obs []PriceObservation) *PriceHistory {
	h := &PriceHistory{byMarket: make(map[MarketKey][]PriceObservation), size: len(obs)}
	for _, o := range obs {
		k := o.marketKey()
		h.byMarket[k] = append(h.byMarket[k], o)
	}
	for _, rows := range h.byMarket {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}
	return h
}

func (h *PriceHistory) Len() int { return h.size }

// Observations returns every observation, grouped by market and ordered by date.
func (h *PriceHistory) Observations() []PriceObservation {
	keys := make([]MarketKey, 0, len(h.byMarket))
	for k := range h.byMarket {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.State != b.State {
			return a.State < b.State
		}
		if a.District != b.District {
			return a.District < b.District
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		return a.Commodity < b.Commodity
	})
	out := make([]PriceObservation, 0, h.size)
	for _, k := range keys {
		out = append(out, h.byMarket[k]...)
	}
	return out
}

// Latest returns the most recent observation for k.
func (h *PriceHistory) Latest(k MarketKey) (PriceObservation, error) {
	rows := h.byMarket[k]
	if len(rows) == 0 {
		return PriceObservation{}, fmt.Errorf("no price history for %s/%s/%s/%s: %w",
			k.State, k.District, k.Market, k.Commodity, ErrUnknownCategory)
	}
	return rows[len(rows)-1], nil
}

// Lags returns the depth most recent prices strictly before the given date for
// one variety and grade at a market. Positions without enough history take
// the mean price of that variety and grade.
func (h *PriceHistory) Lags(k MarketKey, variety, grade string, before time.Time, depth int) (Lags, error) {
	var matched []PriceObservation
	for _, o := range h.byMarket[k] {
		if o.Variety == variety && o.Grade == grade {
			matched = append(matched, o)
		}
	}
	if len(matched) == 0 {
		return Lags{}, fmt.Errorf("no price history for %s/%s at %s (%s, %s): %w",
			k.Commodity, variety, k.Market, k.District, grade, ErrUnknownCategory)
	}

	var sumMin, sumMax, sumModal float64
	for _, o := range matched {
		sumMin += o.Min
		sumMax += o.Max
		sumModal += o.Modal
	}
	n := float64(len(matched))

	lags := Lags{
		Min:   make([]float64, depth),
		Max:   make([]float64, depth),
		Modal: make([]float64, depth),
	}
	for i := 0; i < depth; i++ {
		lags.Min[i], lags.Max[i], lags.Modal[i] = sumMin/n, sumMax/n, sumModal/n
	}

	i := 0
	for j := len(matched) - 1; j >= 0 && i < depth; j-- {
		o := matched[j]
		if !o.Date.Before(before) {
			continue
		}
		lags.Min[i], lags.Max[i], lags.Modal[i] = o.Min, o.Max, o.Modal
		i++
	}
	return lags, nil
}
