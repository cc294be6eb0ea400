package ingest

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/jurisdiction"
)

// ParseBoundaries reads district boundaries from a shapefile. Each record
// becomes a jurisdiction whose bounds are the shape's bounding box; the
// district name is taken from the given attribute field. Records without
// a usable name or shape are skipped and tallied.
func ParseBoundaries(shpPath, nameField string) ([]jurisdiction.Jurisdiction, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("ingest: shapefile has no %q field", nameField)
	}

	var districts []jurisdiction.Jurisdiction
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if name == "" {
			skipped++
			continue
		}

		box := shape.BBox()
		districts = append(districts, jurisdiction.Jurisdiction{
			ID:     Slug(name),
			Name:   name,
			Bounds: geom.NewBounds(geom.XY).Set(box.MinX, box.MinY, box.MaxX, box.MaxY),
		})
	}

	if skipped > 0 {
		zap.L().Warn("ingest: skipped boundary records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return districts, nil
}
