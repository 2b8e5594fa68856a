package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeriesKind_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, SeriesGasoline.Valid())
	assert.True(t, SeriesCrude.Valid())
	assert.False(t, SeriesKind("diesel").Valid())
	assert.False(t, SeriesKind("").Valid())
}

func TestSeriesKind_PriceColumn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gasoline_price", SeriesGasoline.PriceColumn())
	assert.Equal(t, "crude_price", SeriesCrude.PriceColumn())
	assert.Equal(t, "price", SeriesKind("diesel").PriceColumn())
}

func TestSeriesKind_Unit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "USD/gal", SeriesGasoline.Unit())
	assert.Equal(t, "USD/bbl", SeriesCrude.Unit())
}

func TestPriceSeries_Columns(t *testing.T) {
	t.Parallel()

	s := PriceSeries{Kind: SeriesGasoline}
	dateCol, priceCol := s.Columns()
	assert.Equal(t, "date", dateCol)
	assert.Equal(t, "gasoline_price", priceCol)

	// An empty table keeps its column identity
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Len())
}

func TestPriceSeries_SortByDate(t *testing.T) {
	t.Parallel()

	s := PriceSeries{
		Kind: SeriesCrude,
		Points: []PricePoint{
			{Date: time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), Price: 73.41},
			{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Price: 72.31},
			{Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Price: 72.68},
		},
	}

	s.SortByDate()

	assert.Equal(t, 72.31, s.Points[0].Price)
	assert.Equal(t, 72.68, s.Points[1].Price)
	assert.Equal(t, 73.41, s.Points[2].Price)
	for i := 1; i < len(s.Points); i++ {
		assert.True(t, s.Points[i-1].Date.Before(s.Points[i].Date))
	}
}
