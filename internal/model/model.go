// Package model defines the shared value types for area scoring.
package model

// Classification describes the settlement character of an area.
type Classification string

const (
	ClassUrban    Classification = "urban"
	ClassSuburban Classification = "suburban"
	ClassRegional Classification = "regional"
	ClassRemote   Classification = "remote"
)

// Area is a geographic unit (suburb-equivalent) that receives ratings.
// Identity is ID; areas are immutable once loaded into a snapshot.
type Area struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Classification Classification `json:"classification"`
	Population     int            `json:"population_estimate"`

	// JurisdictionID is the explicitly mapped crime-reporting district,
	// if one was recorded at load time. Empty when unmapped.
	JurisdictionID string `json:"jurisdiction_id,omitempty"`
}

// OffenseRecord is a normalized crime count for one offense type in one
// reporting period. Counts are non-negative; records are immutable.
type OffenseRecord struct {
	Jurisdiction string `json:"jurisdiction"`
	OffenseType  string `json:"offense_type"`
	Year         int    `json:"year"`
	Quarter      int    `json:"quarter,omitempty"` // 0 = annual
	Count        int    `json:"count"`
}

// Category identifies a facility category for convenience scoring.
type Category string

const (
	CategoryTransport  Category = "transport"
	CategoryShopping   Category = "shopping"
	CategoryEducation  Category = "education"
	CategoryHealth     Category = "health"
	CategoryRecreation Category = "recreation"
)

// Categories lists all facility categories in aggregation order.
var Categories = []Category{
	CategoryTransport,
	CategoryShopping,
	CategoryEducation,
	CategoryHealth,
	CategoryRecreation,
}

// FacilityPoint is a single facility location. Read-only reference data.
type FacilityPoint struct {
	ID        string   `json:"id"`
	Category  Category `json:"category"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// Trend classifies the short-term direction of a crime time series.
type Trend string

const (
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
	TrendUnknown    Trend = "unknown"
)
