package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/model"
)

// CrimeResult is the outcome of parsing one crime statistics workbook.
type CrimeResult struct {
	Records  []model.OffenseRecord
	Rejected int
}

// ParseCrimeWorkbook reads a crime statistics workbook. One sheet per
// reporting district, header row then one row per offense count:
//
//	Offence | Year | Quarter | Count
//
// Quarter 0 means an annual total. Malformed rows are skipped and
// tallied, never fatal.
func ParseCrimeWorkbook(path string) (CrimeResult, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return CrimeResult{}, eris.Wrap(err, "ingest: open crime workbook")
	}
	if len(f.Sheets) == 0 {
		return CrimeResult{}, eris.New("ingest: crime workbook has no sheets")
	}

	var out CrimeResult
	for _, sheet := range f.Sheets {
		district := Slug(sheet.Name)
		if district == "" {
			out.Rejected += len(sheet.Rows)
			continue
		}

		for i, row := range sheet.Rows {
			if i == 0 {
				continue
			}
			rec, ok := parseOffenseRow(district, row)
			if !ok {
				out.Rejected++
				continue
			}
			out.Records = append(out.Records, rec)
		}
	}

	if out.Rejected > 0 {
		zap.L().Warn("ingest: rejected crime workbook rows",
			zap.String("path", path),
			zap.Int("rejected", out.Rejected),
		)
	}
	return out, nil
}

func parseOffenseRow(district string, row *xlsx.Row) (model.OffenseRecord, bool) {
	if len(row.Cells) < 4 {
		return model.OffenseRecord{}, false
	}

	offense := strings.TrimSpace(row.Cells[0].String())
	if offense == "" {
		return model.OffenseRecord{}, false
	}

	year, err := cellInt(row.Cells[1])
	if err != nil || year < 1990 || year > 2100 {
		return model.OffenseRecord{}, false
	}
	quarter, err := cellInt(row.Cells[2])
	if err != nil || quarter < 0 || quarter > 4 {
		return model.OffenseRecord{}, false
	}
	count, err := cellInt(row.Cells[3])
	if err != nil || count < 0 {
		return model.OffenseRecord{}, false
	}

	return model.OffenseRecord{
		Jurisdiction: district,
		OffenseType:  offense,
		Year:         year,
		Quarter:      quarter,
		Count:        count,
	}, true
}

func cellInt(cell *xlsx.Cell) (int, error) {
	s := strings.TrimSpace(cell.String())
	if s == "" {
		return 0, eris.New("empty cell")
	}
	// Excel numerics often render as "50.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), nil
	}
	return strconv.Atoi(s)
}

// trendChangeThreshold is the relative change below which a year-over-year
// movement counts as stable.
const trendChangeThreshold = 0.05

// DeriveTrends classifies each district's short-term crime direction by
// comparing annual totals for the two most recent years. Records are
// collapsed per (offense, year) first so annual rows and their own
// quarters never both count. Districts with fewer than two years of data
// are reported unknown.
func DeriveTrends(records []model.OffenseRecord) map[string]model.Trend {
	totals := make(map[string]map[int]int)
	for _, r := range model.AnnualOffenses(records) {
		if totals[r.Jurisdiction] == nil {
			totals[r.Jurisdiction] = make(map[int]int)
		}
		totals[r.Jurisdiction][r.Year] += r.Count
	}

	trends := make(map[string]model.Trend, len(totals))
	for district, byYear := range totals {
		if len(byYear) < 2 {
			trends[district] = model.TrendUnknown
			continue
		}

		latest, previous := 0, 0
		for year := range byYear {
			if year > latest {
				previous = latest
				latest = year
			} else if year > previous {
				previous = year
			}
		}

		prev := byYear[previous]
		if prev == 0 {
			trends[district] = model.TrendUnknown
			continue
		}
		change := (float64(byYear[latest]) - float64(prev)) / float64(prev)
		switch {
		case change <= -trendChangeThreshold:
			trends[district] = model.TrendDecreasing
		case change >= trendChangeThreshold:
			trends[district] = model.TrendIncreasing
		default:
			trends[district] = model.TrendStable
		}
	}
	return trends
}
