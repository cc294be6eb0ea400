package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/homescout-au/suburbscore/internal/model"
)

// FacilitiesOptions configures the facility CSV parser.
type FacilitiesOptions struct {
	Charset   string // source encoding name, "" means UTF-8
	Delimiter rune   // default ','
}

// FacilitiesResult is the outcome of parsing one facility CSV.
type FacilitiesResult struct {
	Points   []model.FacilityPoint
	Rejected int
}

var validCategories = func() map[model.Category]bool {
	m := make(map[model.Category]bool, len(model.Categories))
	for _, c := range model.Categories {
		m[c] = true
	}
	return m
}()

// ParseFacilitiesCSV reads facility points from a CSV with columns
// id, category, latitude, longitude. The header row is required. Rows
// with unknown categories or invalid coordinates are skipped and
// tallied, never fatal.
func ParseFacilitiesCSV(r io.Reader, opts FacilitiesOptions) (FacilitiesResult, error) {
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return FacilitiesResult{}, eris.Wrapf(err, "ingest: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1

	var out FacilitiesResult
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return FacilitiesResult{}, eris.Wrap(err, "ingest: read facility row")
		}
		if first {
			first = false
			continue
		}

		point, ok := parseFacilityRow(record)
		if !ok {
			out.Rejected++
			continue
		}
		out.Points = append(out.Points, point)
	}

	if out.Rejected > 0 {
		zap.L().Warn("ingest: rejected facility rows", zap.Int("rejected", out.Rejected))
	}
	return out, nil
}

func parseFacilityRow(record []string) (model.FacilityPoint, bool) {
	if len(record) < 4 {
		return model.FacilityPoint{}, false
	}

	id := strings.TrimSpace(record[0])
	category := model.Category(strings.ToLower(strings.TrimSpace(record[1])))
	if id == "" || !validCategories[category] {
		return model.FacilityPoint{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return model.FacilityPoint{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return model.FacilityPoint{}, false
	}
	if !model.ValidCoordinates(lat, lng) {
		return model.FacilityPoint{}, false
	}

	return model.FacilityPoint{ID: id, Category: category, Latitude: lat, Longitude: lng}, true
}
