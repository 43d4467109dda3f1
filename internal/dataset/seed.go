package dataset

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geomap-cli/internal/model"
)

// SeedVersion is the fixture schema version this build understands.
const SeedVersion = 1

//go:embed seed/hubli_dharwad.yaml
var defaultSeed []byte

// seedFile is the on-disk shape of a seed fixture.
type seedFile struct {
	Version  int          `yaml:"version"`
	Defaults seedDefaults `yaml:"defaults"`
	Records  []seedRecord `yaml:"records"`
}

type seedDefaults struct {
	City   string `yaml:"city"`
	Region string `yaml:"region"`
}

type seedRecord struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
	City    string `yaml:"city"`
	Region  string `yaml:"region"`
}

// DefaultSeed returns the embedded Hubli/Dharwad seed table.
func DefaultSeed() ([]model.LocationRecord, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads a seed fixture from path. An empty path selects the
// embedded default.
func LoadSeed(path string) ([]model.LocationRecord, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read seed %s", path)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed fixture. Per-record city and region fall back
// to the fixture defaults.
func ParseSeed(data []byte) ([]model.LocationRecord, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "dataset: parse seed")
	}
	if f.Version != SeedVersion {
		return nil, eris.Errorf("dataset: unsupported seed version %d (want %d)", f.Version, SeedVersion)
	}

	records := make([]model.LocationRecord, 0, len(f.Records))
	for _, r := range f.Records {
		rec := model.LocationRecord{
			Name:     r.Name,
			Category: model.Category(r.Type),
			Address:  r.Address,
			City:     r.City,
			Region:   r.Region,
		}
		if rec.City == "" {
			rec.City = f.Defaults.City
		}
		if rec.Region == "" {
			rec.Region = f.Defaults.Region
		}
		records = append(records, rec)
	}
	return records, nil
}
