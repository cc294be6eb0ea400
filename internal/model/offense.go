package model

// AnnualOffenses collapses mixed-granularity offense records into one
// annual record per (jurisdiction, offense type, year). Source rows carry
// either an annual total (quarter 0) or quarterly counts, and an annual
// row already includes its own quarters, so when both appear the annual
// row wins outright; otherwise quarters 1-4 sum. First-seen order of the
// (jurisdiction, offense, year) keys is preserved.
func AnnualOffenses(records []OffenseRecord) []OffenseRecord {
	type key struct {
		jurisdiction string
		offense      string
		year         int
	}
	type tally struct {
		annual    int
		hasAnnual bool
		quarters  int
	}

	tallies := make(map[key]*tally)
	order := make([]key, 0, len(records))
	for _, r := range records {
		k := key{r.Jurisdiction, r.OffenseType, r.Year}
		t, ok := tallies[k]
		if !ok {
			t = &tally{}
			tallies[k] = t
			order = append(order, k)
		}
		if r.Quarter == 0 {
			t.annual += r.Count
			t.hasAnnual = true
		} else {
			t.quarters += r.Count
		}
	}

	out := make([]OffenseRecord, 0, len(order))
	for _, k := range order {
		t := tallies[k]
		count := t.quarters
		if t.hasAnnual {
			count = t.annual
		}
		out = append(out, OffenseRecord{
			Jurisdiction: k.jurisdiction,
			OffenseType:  k.offense,
			Year:         k.year,
			Count:        count,
		})
	}
	return out
}

// LatestYear returns the most recent year present in the records, or 0
// when there are none.
func LatestYear(records []OffenseRecord) int {
	latest := 0
	for _, r := range records {
		if r.Year > latest {
			latest = r.Year
		}
	}
	return latest
}
