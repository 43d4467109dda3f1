package render

import (
	"strings"

	"github.com/sells-group/geomap-cli/internal/model"
)

// Palette maps categories to Leaflet-compatible CSS colors.
type Palette struct {
	Colors   map[model.Category]string
	Fallback string
}

// DefaultPalette colors ITI blue and everything else red.
//
// Any category other than ITI renders red, same as MSME. A new category
// would be indistinguishable from MSME until it gets its own entry; Build
// logs a warning when that happens.
func DefaultPalette() Palette {
	return Palette{
		Colors: map[model.Category]string{
			model.CategoryITI:  "blue",
			model.CategoryMSME: "red",
		},
		Fallback: "red",
	}
}

// Color returns the color for c and whether c had an explicit entry.
func (p Palette) Color(c model.Category) (string, bool) {
	if color, ok := p.Colors[c]; ok {
		return color, true
	}
	if p.Fallback == "" {
		return "red", false
	}
	return p.Fallback, false
}

// WithOverrides returns a copy of p with entries from overrides applied.
// Keys match existing categories case-insensitively (config loaders lowercase
// map keys); unknown keys are upper-cased.
func (p Palette) WithOverrides(overrides map[string]string) Palette {
	out := Palette{Colors: make(map[model.Category]string, len(p.Colors)+len(overrides)), Fallback: p.Fallback}
	for k, v := range p.Colors {
		out.Colors[k] = v
	}
	for k, v := range overrides {
		key := model.Category(strings.ToUpper(k))
		for existing := range p.Colors {
			if strings.EqualFold(string(existing), k) {
				key = existing
				break
			}
		}
		out.Colors[key] = v
	}
	return out
}
