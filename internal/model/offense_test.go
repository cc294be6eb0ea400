package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnualOffenses(t *testing.T) {
	records := []OffenseRecord{
		// Annual total alongside its own quarters: the annual row wins.
		{Jurisdiction: "perth-district", OffenseType: "Burglary", Year: 2023, Quarter: 0, Count: 100},
		{Jurisdiction: "perth-district", OffenseType: "Burglary", Year: 2023, Quarter: 1, Count: 25},
		{Jurisdiction: "perth-district", OffenseType: "Burglary", Year: 2023, Quarter: 2, Count: 25},
		// Quarters only: they sum.
		{Jurisdiction: "perth-district", OffenseType: "Theft", Year: 2023, Quarter: 1, Count: 10},
		{Jurisdiction: "perth-district", OffenseType: "Theft", Year: 2023, Quarter: 2, Count: 15},
		// Separate year stays separate.
		{Jurisdiction: "midland-district", OffenseType: "Burglary", Year: 2022, Quarter: 0, Count: 40},
	}

	annual := AnnualOffenses(records)
	require.Len(t, annual, 3)

	assert.Equal(t, OffenseRecord{
		Jurisdiction: "perth-district", OffenseType: "Burglary", Year: 2023, Count: 100,
	}, annual[0])
	assert.Equal(t, OffenseRecord{
		Jurisdiction: "perth-district", OffenseType: "Theft", Year: 2023, Count: 25,
	}, annual[1])
	assert.Equal(t, OffenseRecord{
		Jurisdiction: "midland-district", OffenseType: "Burglary", Year: 2022, Count: 40,
	}, annual[2])
}

func TestAnnualOffensesEmpty(t *testing.T) {
	assert.Empty(t, AnnualOffenses(nil))
}

func TestLatestYear(t *testing.T) {
	assert.Equal(t, 0, LatestYear(nil))
	assert.Equal(t, 2023, LatestYear([]OffenseRecord{
		{Year: 2021}, {Year: 2023}, {Year: 2019},
	}))
}
