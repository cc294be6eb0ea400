package severity

import (
	"math"
	"strings"

	"github.com/homescout-au/suburbscore/internal/model"
)

// DefaultK is the normalization constant for the crime index curve.
const DefaultK = 10000

// Result holds the crime index for one jurisdiction and period, along with
// the inputs that produced it and a tally of rejected records.
type Result struct {
	Index           float64 `json:"index"`      // 1-10, 10 = safest
	Confidence      float64 `json:"confidence"` // 0 when no usable records
	TotalCrimes     int     `json:"total_crimes"`
	WeightedScore   float64 `json:"weighted_score"`
	FrequencyImpact float64 `json:"frequency_impact"`
	Rejected        int     `json:"rejected"`
}

// CrimeIndex computes the 1-10 crime index for a set of offense records.
//
// Each record contributes count * severity * weight. The summed score is
// mapped onto the index curve 10 - 8*(1 - e^(-score/k)), so more or worse
// crime can only lower the index, and the frequency impact factor
// 1 + ln(1 + totalCrimes) dampens single dominant jurisdictions.
//
// Malformed records (negative counts, blank offense type) are skipped and
// counted in Rejected; the jurisdiction is never discarded outright.
// Zero offenses yields index 10.
func CrimeIndex(records []model.OffenseRecord, profile Profile, k float64) Result {
	if k <= 0 {
		k = DefaultK
	}

	var res Result
	for _, r := range records {
		if r.Count < 0 || strings.TrimSpace(r.OffenseType) == "" {
			res.Rejected++
			continue
		}
		e := profile.Lookup(r.OffenseType)
		res.WeightedScore += float64(r.Count) * e.Severity * e.Weight
		res.TotalCrimes += r.Count
	}

	if res.TotalCrimes == 0 {
		res.Index = 10
		res.FrequencyImpact = 1
	} else {
		// The exponential curve already saturates for high-volume
		// jurisdictions; the frequency impact factor is reported so
		// callers can see how much raw volume contributed.
		res.FrequencyImpact = 1 + math.Log(1+float64(res.TotalCrimes))
		res.Index = model.Clamp(10-8*(1-math.Exp(-res.WeightedScore/k)), 1, 10)
	}

	// Confidence reflects how much of the input survived validation.
	total := len(records)
	if total == 0 {
		res.Confidence = 1 // genuinely zero crime, fully covered
	} else {
		res.Confidence = float64(total-res.Rejected) / float64(total)
	}
	return res
}
