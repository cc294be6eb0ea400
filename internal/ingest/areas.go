package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/model"
)

// AreasResult is the outcome of parsing one area CSV.
type AreasResult struct {
	Areas    []model.Area
	Rejected int
}

var validClassifications = map[model.Classification]bool{
	model.ClassUrban:    true,
	model.ClassSuburban: true,
	model.ClassRegional: true,
	model.ClassRemote:   true,
}

// ParseAreasCSV reads areas from a CSV with columns id, name, latitude,
// longitude, classification, population, jurisdiction_id. The header row
// is required; classification, population and jurisdiction_id may be
// empty. A row may leave both coordinate cells blank, producing a
// zero-coordinate area the loader geocodes afterwards. Invalid rows are
// skipped and tallied.
func ParseAreasCSV(r io.Reader) (AreasResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var out AreasResult
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return AreasResult{}, eris.Wrap(err, "ingest: read area row")
		}
		if first {
			first = false
			continue
		}

		area, ok := parseAreaRow(record)
		if !ok {
			out.Rejected++
			continue
		}
		out.Areas = append(out.Areas, area)
	}

	if out.Rejected > 0 {
		zap.L().Warn("ingest: rejected area rows", zap.Int("rejected", out.Rejected))
	}
	return out, nil
}

func parseAreaRow(record []string) (model.Area, bool) {
	if len(record) < 4 {
		return model.Area{}, false
	}

	id := strings.TrimSpace(record[0])
	name := strings.TrimSpace(record[1])
	if id == "" || name == "" {
		return model.Area{}, false
	}

	var lat, lng float64
	rawLat, rawLng := strings.TrimSpace(record[2]), strings.TrimSpace(record[3])
	if rawLat != "" || rawLng != "" {
		var errLat, errLng error
		lat, errLat = strconv.ParseFloat(rawLat, 64)
		lng, errLng = strconv.ParseFloat(rawLng, 64)
		if errLat != nil || errLng != nil || !model.ValidCoordinates(lat, lng) {
			return model.Area{}, false
		}
	}

	area := model.Area{
		ID:             id,
		Name:           name,
		Latitude:       lat,
		Longitude:      lng,
		Classification: model.ClassSuburban,
	}

	if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
		class := model.Classification(strings.ToLower(strings.TrimSpace(record[4])))
		if !validClassifications[class] {
			return model.Area{}, false
		}
		area.Classification = class
	}
	if len(record) > 5 && strings.TrimSpace(record[5]) != "" {
		population, err := strconv.Atoi(strings.TrimSpace(record[5]))
		if err != nil || population < 0 {
			return model.Area{}, false
		}
		area.Population = population
	}
	if len(record) > 6 {
		area.JurisdictionID = Slug(record[6])
	}

	return area, true
}

// DemographicsResult is the outcome of parsing one demographics CSV.
type DemographicsResult struct {
	ByArea   map[string]model.Score
	Rejected int
}

// ParseDemographicsCSV reads per-area demographic indexes from a CSV
// with columns area_id, value, confidence. Values are on the 0-10 scale;
// confidence on [0,1]. Invalid rows are skipped and tallied.
func ParseDemographicsCSV(r io.Reader) (DemographicsResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	out := DemographicsResult{ByArea: make(map[string]model.Score)}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DemographicsResult{}, eris.Wrap(err, "ingest: read demographic row")
		}
		if first {
			first = false
			continue
		}

		if len(record) < 3 {
			out.Rejected++
			continue
		}
		id := strings.TrimSpace(record[0])
		value, errV := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		confidence, errC := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if id == "" || errV != nil || errC != nil ||
			value < 0 || value > 10 || confidence < 0 || confidence > 1 {
			out.Rejected++
			continue
		}

		out.ByArea[id] = model.Score{
			Value:          model.Clamp(value, 0, 10),
			Confidence:     confidence,
			HigherIsBetter: true,
		}
	}

	if out.Rejected > 0 {
		zap.L().Warn("ingest: rejected demographic rows", zap.Int("rejected", out.Rejected))
	}
	return out, nil
}
