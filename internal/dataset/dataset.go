// Package dataset materializes the working location table from CSV, bootstrapping
// it from a seed fixture when the input file does not exist yet.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/geomap-cli/internal/model"
)

// Column names shared by the input and output tables.
const (
	ColName      = "Name"
	ColType      = "Type"
	ColAddress   = "Address"
	ColCity      = "City"
	ColRegion    = "Region"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"
)

// inputRow maps the required input columns.
type inputRow struct {
	Name    string `csv:"Name"`
	Type    string `csv:"Type"`
	Address string `csv:"Address"`
	City    string `csv:"City"`
	Region  string `csv:"Region"`
}

// outputRow maps the enriched table. Coordinates are kept as text so an
// absent value round-trips as an empty cell.
type outputRow struct {
	Name      string `csv:"Name"`
	Type      string `csv:"Type"`
	Address   string `csv:"Address"`
	City      string `csv:"City"`
	Region    string `csv:"Region"`
	Latitude  string `csv:"Latitude"`
	Longitude string `csv:"Longitude"`
}

// LoadOptions configures how an input table is parsed.
type LoadOptions struct {
	// Charset names the input encoding (any WHATWG label, e.g. "windows-1252").
	// Empty means UTF-8.
	Charset string
}

// Ensure returns the table at path. When the file does not exist, the seed
// records are written to path first so later runs reuse the same input.
// created reports whether the file was bootstrapped by this call.
func Ensure(path string, seed []model.LocationRecord, opts LoadOptions) (records []model.LocationRecord, created bool, err error) {
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		zap.L().Info("dataset: loading existing file", zap.String("path", path))
		records, err = Load(path, opts)
		return records, false, err
	case errors.Is(statErr, fs.ErrNotExist):
		zap.L().Info("dataset: file not found, writing seed table",
			zap.String("path", path),
			zap.Int("records", len(seed)),
		)
		if err := WriteInput(path, seed); err != nil {
			return nil, false, err
		}
		out := make([]model.LocationRecord, len(seed))
		copy(out, seed)
		return out, true, nil
	default:
		return nil, false, eris.Wrapf(statErr, "dataset: stat %s", path)
	}
}

// Load parses a location table. The Name, Type, Address, City and Region
// columns are required; Latitude and Longitude are read when present.
func Load(path string, opts LoadOptions) ([]model.LocationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	records, err := Read(f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: load %s", path)
	}
	return records, nil
}

// Read parses a location table from r.
func Read(r io.Reader, opts LoadOptions) ([]model.LocationRecord, error) {
	input, err := decodeCharset(r, opts.Charset)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(input)
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("dataset: empty table, header required")
		}
		return nil, eris.Wrap(err, "dataset: read header")
	}

	if missing := missingColumns(dec.Header(), ColName, ColType, ColAddress, ColCity, ColRegion); len(missing) > 0 {
		return nil, eris.Errorf("dataset: missing required columns: %s", strings.Join(missing, ", "))
	}
	hasCoords := len(missingColumns(dec.Header(), ColLatitude, ColLongitude)) == 0

	var records []model.LocationRecord
	for n := 1; ; n++ {
		var row outputRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "dataset: decode record %d", n)
		}
		// Quoted fields may span lines; report where the record starts.
		line, _ := cr.FieldPos(0)

		rec := model.LocationRecord{
			Name:     row.Name,
			Category: model.Category(row.Type),
			Address:  row.Address,
			City:     row.City,
			Region:   row.Region,
		}
		if hasCoords {
			coords, err := parseCoordinates(row.Latitude, row.Longitude)
			if err != nil {
				return nil, eris.Wrapf(err, "dataset: row %d", line)
			}
			if coords == nil && (row.Latitude != "" || row.Longitude != "") {
				zap.L().Warn("dataset: partial coordinate pair, treating row as unresolved",
					zap.Int("line", line),
					zap.String("name", row.Name),
				)
			}
			rec.Coordinates = coords
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteInput writes records as an input table (no coordinate columns).
func WriteInput(path string, records []model.LocationRecord) error {
	rows := make([]inputRow, len(records))
	for i, r := range records {
		rows[i] = inputRow{
			Name:    r.Name,
			Type:    string(r.Category),
			Address: r.Address,
			City:    r.City,
			Region:  r.Region,
		}
	}
	return writeRows(path, rows)
}

// Save writes the enriched table, including unresolved rows with empty
// Latitude and Longitude cells, in record order.
func Save(path string, records []model.LocationRecord) error {
	return writeRows(path, outputRows(records))
}

func outputRows(records []model.LocationRecord) []outputRow {
	rows := make([]outputRow, len(records))
	for i, r := range records {
		rows[i] = outputRow{
			Name:    r.Name,
			Type:    string(r.Category),
			Address: r.Address,
			City:    r.City,
			Region:  r.Region,
		}
		if r.Coordinates != nil {
			rows[i].Latitude = formatDegrees(r.Coordinates.Latitude)
			rows[i].Longitude = formatDegrees(r.Coordinates.Longitude)
		}
	}
	return rows
}

func writeRows[T any](path string, rows []T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "dataset: create directory %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}

	bw := bufio.NewWriter(f)
	if err := encodeRows(bw, rows); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "dataset: write %s", path)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "dataset: flush %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "dataset: close %s", path)
	}
	return nil
}

func encodeRows[T any](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return eris.Wrap(err, "dataset: encode header")
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "dataset: encode row %d", i+2)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush csv")
}

// decodeCharset wraps r so it yields UTF-8. A leading UTF-8 BOM is dropped.
func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

func missingColumns(header []string, want ...string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, w := range want {
		if !have[w] {
			missing = append(missing, w)
		}
	}
	return missing
}

// missingMarkers are cell values spreadsheet and dataframe tools write for
// an absent number.
var missingMarkers = map[string]bool{
	"": true, "nan": true, "-nan": true, "na": true, "n/a": true, "#n/a": true,
	"#n/a n/a": true, "#na": true, "<na>": true, "null": true, "none": true,
	"-1.#ind": true, "1.#ind": true, "-1.#qnan": true, "1.#qnan": true,
}

func isMissing(cell string) bool {
	return missingMarkers[strings.ToLower(cell)]
}

// parseCoordinates returns nil unless both cells hold a finite number.
func parseCoordinates(lat, lon string) (*model.Coordinates, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if isMissing(lat) || isMissing(lon) {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse longitude %q", lon)
	}
	if !finite(la) || !finite(lo) {
		return nil, nil
	}
	return &model.Coordinates{Latitude: la, Longitude: lo}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
