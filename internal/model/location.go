package model

// Category classifies a facility. It only drives display color-coding.
type Category string

const (
	CategoryITI  Category = "ITI"  // Industrial Training Institute
	CategoryMSME Category = "MSME" // Micro, Small and Medium Enterprise
)

// Coordinates is a resolved WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// LocationRecord is one row of the working table.
type LocationRecord struct {
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"type" yaml:"type"`
	Address  string   `json:"address" yaml:"address"`
	City     string   `json:"city" yaml:"city"`
	Region   string   `json:"region" yaml:"region"`

	// Coordinates is nil when the address could not be geocoded. Holding the
	// pair behind one pointer keeps latitude and longitude set together.
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"-"`
}

// Resolved reports whether the record carries a coordinate pair.
func (r LocationRecord) Resolved() bool {
	return r.Coordinates != nil
}

// CountResolved returns the number of records with coordinates.
func CountResolved(records []LocationRecord) int {
	n := 0
	for _, r := range records {
		if r.Resolved() {
			n++
		}
	}
	return n
}
