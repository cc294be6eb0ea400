package neighbor

import (
	"math"

	"github.com/homescout-au/suburbscore/internal/model"
)

// cell is a lat/lng grid bucket key.
type cell struct {
	row, col int
}

// Index is a grid-bucket spatial index over an area set. Bucketing only
// narrows the candidate set; every candidate still gets an exact haversine
// check, so the distance threshold is exact regardless of cell size.
type Index struct {
	cellDeg float64
	cells   map[cell][]model.Area
	areas   []model.Area
}

// NewIndex builds an index with cells sized for the given query radius.
// A cell spans at least the radius so a 3x3 neighborhood of cells covers
// any query circle.
func NewIndex(areas []model.Area, radiusKM float64) *Index {
	if radiusKM <= 0 {
		radiusKM = 20
	}
	idx := &Index{
		cellDeg: radiusKM * DegreesPerKM,
		cells:   make(map[cell][]model.Area),
		areas:   areas,
	}
	for _, a := range areas {
		c := idx.cellOf(a.Latitude, a.Longitude)
		idx.cells[c] = append(idx.cells[c], a)
	}
	return idx
}

func (idx *Index) cellOf(lat, lng float64) cell {
	return cell{
		row: int(math.Floor(lat / idx.cellDeg)),
		col: int(math.Floor(lng / idx.cellDeg)),
	}
}

// Neighbor is one area within the query radius.
type Neighbor struct {
	Area       model.Area
	DistanceKM float64
}

// Within returns all areas within radiusKM of the given point, excluding
// the area with excludeID. Results are exact; ordering is unspecified.
func (idx *Index) Within(lat, lng, radiusKM float64, excludeID string) []Neighbor {
	center := idx.cellOf(lat, lng)

	rowSpan := int(math.Ceil(radiusKM * DegreesPerKM / idx.cellDeg))
	if rowSpan < 1 {
		rowSpan = 1
	}

	// Longitude degrees shrink with latitude, so the column span has to
	// widen by 1/cos(lat) to keep the radius check exhaustive.
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.1 {
		cosLat = 0.1
	}
	colSpan := int(math.Ceil(radiusKM * DegreesPerKM / (idx.cellDeg * cosLat)))
	if colSpan < 1 {
		colSpan = 1
	}

	var out []Neighbor
	for dr := -rowSpan; dr <= rowSpan; dr++ {
		for dc := -colSpan; dc <= colSpan; dc++ {
			for _, a := range idx.cells[cell{center.row + dr, center.col + dc}] {
				if a.ID == excludeID {
					continue
				}
				d := HaversineKM(lat, lng, a.Latitude, a.Longitude)
				if d <= radiusKM {
					out = append(out, Neighbor{Area: a, DistanceKM: d})
				}
			}
		}
	}
	return out
}

// Len returns the number of indexed areas.
func (idx *Index) Len() int { return len(idx.areas) }
