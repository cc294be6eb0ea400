package severity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout-au/suburbscore/internal/model"
)

func TestCrimeIndexWorkedExample(t *testing.T) {
	// Murder 1x100x3.0 + Burglary 50x40x2.0 = 300 + 4000 = 4300.
	// index = 10 - 8*(1 - e^(-4300/10000)) ~= 7.2
	profile := Profile{
		"Murder":        {Severity: 100, Weight: 3.0},
		"Burglary":      {Severity: 40, Weight: 2.0},
		DefaultCategory: {Severity: 30, Weight: 1.5},
	}
	records := []model.OffenseRecord{
		{Jurisdiction: "perth", OffenseType: "Murder", Year: 2023, Count: 1},
		{Jurisdiction: "perth", OffenseType: "Burglary", Year: 2023, Count: 50},
	}

	res := CrimeIndex(records, profile, 10000)
	assert.InDelta(t, 4300, res.WeightedScore, 0.001)
	assert.Equal(t, 51, res.TotalCrimes)
	assert.InDelta(t, 7.2, res.Index, 0.05)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
	assert.Equal(t, 0, res.Rejected)
}

func TestCrimeIndexZeroOffenses(t *testing.T) {
	res := CrimeIndex(nil, DefaultProfile(), DefaultK)
	assert.InDelta(t, 10.0, res.Index, 0.001)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
}

func TestCrimeIndexBounds(t *testing.T) {
	profile := DefaultProfile()

	t.Run("always within 1-10", func(t *testing.T) {
		for _, count := range []int{0, 1, 10, 1000, 1_000_000} {
			records := []model.OffenseRecord{
				{Jurisdiction: "j", OffenseType: "Murder", Count: count},
			}
			res := CrimeIndex(records, profile, DefaultK)
			assert.GreaterOrEqual(t, res.Index, 1.0, "count=%d", count)
			assert.LessOrEqual(t, res.Index, 10.0, "count=%d", count)
		}
	})

	t.Run("monotone non-increasing in weighted score", func(t *testing.T) {
		prev := math.Inf(1)
		for _, count := range []int{0, 1, 5, 50, 500, 5000} {
			records := []model.OffenseRecord{
				{Jurisdiction: "j", OffenseType: "Burglary", Count: count},
			}
			res := CrimeIndex(records, profile, DefaultK)
			assert.LessOrEqual(t, res.Index, prev, "count=%d", count)
			prev = res.Index
		}
	})
}

func TestCrimeIndexRejectsMalformedRecords(t *testing.T) {
	profile := DefaultProfile()
	records := []model.OffenseRecord{
		{Jurisdiction: "j", OffenseType: "Burglary", Count: 10},
		{Jurisdiction: "j", OffenseType: "Burglary", Count: -3}, // negative
		{Jurisdiction: "j", OffenseType: "   ", Count: 5},       // blank type
	}

	res := CrimeIndex(records, profile, DefaultK)
	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, 10, res.TotalCrimes)
	// Confidence degrades with rejection share but the jurisdiction survives.
	assert.InDelta(t, 1.0/3.0, res.Confidence, 0.001)
	assert.Greater(t, res.Index, 1.0)
}

func TestCrimeIndexUnknownOffenseType(t *testing.T) {
	profile := DefaultProfile()
	records := []model.OffenseRecord{
		{Jurisdiction: "j", OffenseType: "Jaywalking While Juggling", Count: 4},
	}

	res := CrimeIndex(records, profile, DefaultK)
	// Falls back to the Other Crime entry: 4 * 30 * 1.5 = 180.
	assert.InDelta(t, 180, res.WeightedScore, 0.001)
	assert.Equal(t, 0, res.Rejected)
}

func TestProfileValidate(t *testing.T) {
	t.Run("default profile is valid", func(t *testing.T) {
		require.NoError(t, DefaultProfile().Validate())
	})

	t.Run("missing default category", func(t *testing.T) {
		p := Profile{"Burglary": {Severity: 40, Weight: 2.0}}
		assert.Error(t, p.Validate())
	})

	t.Run("out of range severity", func(t *testing.T) {
		p := Profile{
			"Burglary":      {Severity: 400, Weight: 2.0},
			DefaultCategory: {Severity: 30, Weight: 1.5},
		}
		assert.Error(t, p.Validate())
	})

	t.Run("out of range weight", func(t *testing.T) {
		p := Profile{
			"Burglary":      {Severity: 40, Weight: 0.5},
			DefaultCategory: {Severity: 30, Weight: 1.5},
		}
		assert.Error(t, p.Validate())
	})

	t.Run("empty profile", func(t *testing.T) {
		assert.Error(t, Profile{}.Validate())
	})
}

func TestLookupFallsBack(t *testing.T) {
	p := DefaultProfile()
	e := p.Lookup("No Such Offense")
	assert.Equal(t, p[DefaultCategory], e)
}
