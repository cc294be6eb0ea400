package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/homescout-au/suburbscore/internal/model"
)

func writeCrimeWorkbook(t *testing.T, rows map[string][][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	for sheetName, sheetRows := range rows {
		sheet, err := f.AddSheet(sheetName)
		require.NoError(t, err)

		header := sheet.AddRow()
		for _, h := range []string{"Offence", "Year", "Quarter", "Count"} {
			header.AddCell().Value = h
		}
		for _, r := range sheetRows {
			row := sheet.AddRow()
			for _, v := range r {
				row.AddCell().Value = v
			}
		}
	}

	path := filepath.Join(t.TempDir(), "crime.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestParseCrimeWorkbook(t *testing.T) {
	path := writeCrimeWorkbook(t, map[string][][]string{
		"Perth District": {
			{"Burglary", "2023", "0", "50"},
			{"Murder", "2023", "0", "1"},
		},
	})

	got, err := ParseCrimeWorkbook(path)
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, 0, got.Rejected)

	assert.Equal(t, "perth-district", got.Records[0].Jurisdiction)
	assert.Equal(t, "Burglary", got.Records[0].OffenseType)
	assert.Equal(t, 2023, got.Records[0].Year)
	assert.Equal(t, 50, got.Records[0].Count)
}

func TestParseCrimeWorkbookRejectsMalformedRows(t *testing.T) {
	path := writeCrimeWorkbook(t, map[string][][]string{
		"Perth District": {
			{"Burglary", "2023", "0", "50"},
			{"", "2023", "0", "10"},           // blank offense
			{"Assault", "2023", "0", "-5"},    // negative count
			{"Theft", "not-a-year", "0", "3"}, // bad year
		},
	})

	got, err := ParseCrimeWorkbook(path)
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
	assert.Equal(t, 3, got.Rejected)
}

func TestParseCrimeWorkbookMissingFile(t *testing.T) {
	_, err := ParseCrimeWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestParseFacilitiesCSV(t *testing.T) {
	csvData := `id,category,latitude,longitude
stn-perth,transport,-31.9508,115.8605
hosp-rph,health,-31.9535,115.8650
bad-cat,casino,-31.95,115.86
bad-lat,transport,95.0,115.86
`
	got, err := ParseFacilitiesCSV(strings.NewReader(csvData), FacilitiesOptions{})
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	assert.Equal(t, 2, got.Rejected)
	assert.Equal(t, model.CategoryTransport, got.Points[0].Category)
	assert.InDelta(t, -31.9508, got.Points[0].Latitude, 1e-9)
}

func TestParseFacilitiesCSVUnsupportedCharset(t *testing.T) {
	_, err := ParseFacilitiesCSV(strings.NewReader("id\n"), FacilitiesOptions{Charset: "no-such-charset"})
	assert.Error(t, err)
}

func TestDeriveTrends(t *testing.T) {
	records := []model.OffenseRecord{
		// Down more than 5%.
		{Jurisdiction: "perth-district", OffenseType: "Burglary", Year: 2022, Count: 100},
		{Jurisdiction: "perth-district", OffenseType: "Burglary", Year: 2023, Count: 80},
		// Within 5%.
		{Jurisdiction: "midland-district", OffenseType: "Theft", Year: 2022, Count: 100},
		{Jurisdiction: "midland-district", OffenseType: "Theft", Year: 2023, Count: 102},
		// Up more than 5%.
		{Jurisdiction: "fremantle-district", OffenseType: "Assault", Year: 2022, Count: 50},
		{Jurisdiction: "fremantle-district", OffenseType: "Assault", Year: 2023, Count: 70},
		// Single year only.
		{Jurisdiction: "albany-district", OffenseType: "Theft", Year: 2023, Count: 10},
		// Annual totals alongside the quarters they already include:
		// flat year over year, not an apparent doubling.
		{Jurisdiction: "bunbury-district", OffenseType: "Theft", Year: 2022, Count: 100},
		{Jurisdiction: "bunbury-district", OffenseType: "Theft", Year: 2023, Count: 100},
		{Jurisdiction: "bunbury-district", OffenseType: "Theft", Year: 2023, Quarter: 1, Count: 25},
		{Jurisdiction: "bunbury-district", OffenseType: "Theft", Year: 2023, Quarter: 2, Count: 25},
		{Jurisdiction: "bunbury-district", OffenseType: "Theft", Year: 2023, Quarter: 3, Count: 25},
		{Jurisdiction: "bunbury-district", OffenseType: "Theft", Year: 2023, Quarter: 4, Count: 25},
	}

	trends := DeriveTrends(records)
	assert.Equal(t, model.TrendDecreasing, trends["perth-district"])
	assert.Equal(t, model.TrendStable, trends["midland-district"])
	assert.Equal(t, model.TrendIncreasing, trends["fremantle-district"])
	assert.Equal(t, model.TrendUnknown, trends["albany-district"])
	assert.Equal(t, model.TrendStable, trends["bunbury-district"])
}

func TestParseAreasCSV(t *testing.T) {
	csvData := `id,name,latitude,longitude,classification,population,jurisdiction_id
perth,Perth,-31.9523,115.8613,urban,21000,Perth District
subiaco,Subiaco,-31.9442,115.8261,,,
ungeocoded,Yallingup,,,,,
bad-coords,Nowhere,95.0,115.0,,,
half-coords,Halfway,-32.0,,,,
,Anonymous,-32.0,115.8,,,
`
	got, err := ParseAreasCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, got.Areas, 3)
	assert.Equal(t, 3, got.Rejected)

	// Blank coordinate pairs pass through as zeros for later geocoding.
	assert.Zero(t, got.Areas[2].Latitude)
	assert.Zero(t, got.Areas[2].Longitude)

	assert.Equal(t, model.ClassUrban, got.Areas[0].Classification)
	assert.Equal(t, 21000, got.Areas[0].Population)
	assert.Equal(t, "perth-district", got.Areas[0].JurisdictionID)
	// Classification defaults when the column is empty.
	assert.Equal(t, model.ClassSuburban, got.Areas[1].Classification)
}

func TestParseDemographicsCSV(t *testing.T) {
	csvData := `area_id,value,confidence
perth,7.0,1.0
subiaco,6.5,0.8
struggletown,0.4,0.9
bad,11.0,1.0
worse,5.0,1.5
negative,-0.1,1.0
`
	got, err := ParseDemographicsCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, got.ByArea, 3)
	assert.Equal(t, 3, got.Rejected)
	assert.InDelta(t, 7.0, got.ByArea["perth"].Value, 1e-9)
	assert.True(t, got.ByArea["perth"].HigherIsBetter)
	// Sub-1 indexes are legitimate data, not malformed rows.
	assert.InDelta(t, 0.4, got.ByArea["struggletown"].Value, 1e-9)
}

func TestParseBoundariesMissingFile(t *testing.T) {
	_, err := ParseBoundaries(filepath.Join(t.TempDir(), "nope.shp"), "NAME")
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "perth-district", Slug("Perth District"))
	assert.Equal(t, "mid-west-gascoyne", Slug("  Mid West_Gascoyne "))
	assert.Equal(t, "", Slug("   "))
}
