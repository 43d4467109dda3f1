package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/geomap-cli/internal/model"
)

func TestEnsure_BootstrapsSeed(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "locations.csv")
	records, created, err := Ensure(path, seed, LoadOptions{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, seed, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 21)
	assert.Equal(t, "Name,Type,Address,City,Region", lines[0])
	assert.Equal(t, "Govt. Industrial Training Institute,ITI,\"Vidyanagar, Hubli\",Hubli,Hubli/Dharwad", lines[1])
}

func TestEnsure_IdempotentBootstrap(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)

	first := filepath.Join(t.TempDir(), "a.csv")
	second := filepath.Join(t.TempDir(), "b.csv")

	_, _, err = Ensure(first, seed, LoadOptions{})
	require.NoError(t, err)
	_, _, err = Ensure(second, seed, LoadOptions{})
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "seed tables differ")
}

func TestEnsure_ReusesExistingFile(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "locations.csv")
	_, created, err := Ensure(path, seed, LoadOptions{})
	require.NoError(t, err)
	require.True(t, created)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	records, created, err := Ensure(path, nil, LoadOptions{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, seed, records)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnsure_UnwritableSeedPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := Ensure(filepath.Join(blocker, "locations.csv"), []model.LocationRecord{{Name: "a"}}, LoadOptions{})
	assert.Error(t, err)
}

func TestRead_MissingColumns(t *testing.T) {
	_, err := Read(strings.NewReader("Name,Type,Address\na,ITI,b\n"), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "City, Region")
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header required")
}

func TestRead_MalformedRow(t *testing.T) {
	input := "Name,Type,Address,City,Region\na,ITI,b,Hubli\n"
	_, err := Read(strings.NewReader(input), LoadOptions{})
	assert.Error(t, err)
}

func TestRead_ExtraColumnsIgnored(t *testing.T) {
	input := "Region,Name,Notes,Type,Address,City\nHubli/Dharwad,Test ITI,x,ITI,\"Vidyanagar, Hubli\",Hubli\n"
	records, err := Read(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.LocationRecord{
		Name:     "Test ITI",
		Category: model.CategoryITI,
		Address:  "Vidyanagar, Hubli",
		City:     "Hubli",
		Region:   "Hubli/Dharwad",
	}, records[0])
}

func TestRead_StripsBOM(t *testing.T) {
	input := "\ufeffName,Type,Address,City,Region\na,MSME,b,c,d\n"
	records, err := Read(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Name)
}

func TestRead_Windows1252(t *testing.T) {
	// 0xE9 is "é" in windows-1252.
	input := []byte("Name,Type,Address,City,Region\nCaf\xe9 Cluster,MSME,b,c,d\n")
	records, err := Read(bytes.NewReader(input), LoadOptions{Charset: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Café Cluster", records[0].Name)
}

func TestRead_UnknownCharset(t *testing.T) {
	_, err := Read(strings.NewReader("x"), LoadOptions{Charset: "klingon-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestRead_Coordinates(t *testing.T) {
	input := "Name,Type,Address,City,Region,Latitude,Longitude\n" +
		"a,ITI,x,Hubli,R,15.3647,75.124\n" +
		"b,MSME,y,Hubli,R,,\n" +
		"c,MSME,z,Hubli,R,15.1,\n"
	records, err := Read(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NotNil(t, records[0].Coordinates)
	assert.InDelta(t, 15.3647, records[0].Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 75.124, records[0].Coordinates.Longitude, 1e-9)
	assert.Nil(t, records[1].Coordinates)
	assert.Nil(t, records[2].Coordinates, "partial pair must load as unresolved")
}

func observeGlobal(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	return logs
}

func TestRead_NonFiniteCoordinate(t *testing.T) {
	logs := observeGlobal(t)

	input := "Name,Type,Address,City,Region,Latitude,Longitude\n" +
		"a,ITI,x,Hubli,R,NaN,NaN\n" +
		"b,MSME,y,Hubli,R,15.2,75.1\n" +
		"c,MSME,z,Hubli,R,+Inf,75.1\n" +
		"d,ITI,w,Hubli,R,nan,NA\n" +
		"e,ITI,v,Hubli,R,15.3,#N/A\n"
	records, err := Read(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Nil(t, records[0].Coordinates)
	require.NotNil(t, records[1].Coordinates)
	assert.InDelta(t, 15.2, records[1].Coordinates.Latitude, 1e-9)
	assert.Nil(t, records[2].Coordinates)
	assert.Nil(t, records[3].Coordinates)
	assert.Nil(t, records[4].Coordinates)
	assert.Equal(t, 4, logs.FilterMessage("dataset: partial coordinate pair, treating row as unresolved").Len())
}

func TestRead_WarningReportsRecordStartLine(t *testing.T) {
	logs := observeGlobal(t)

	input := "Name,Type,Address,City,Region,Latitude,Longitude\n" +
		"a,ITI,\"Plot 4,\nIndustrial Area\",Hubli,R,15.1,75.1\n" +
		"b,MSME,y,Hubli,R,15.2,\n"
	records, err := Read(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Plot 4,\nIndustrial Area", records[0].Address)

	entries := logs.FilterMessage("dataset: partial coordinate pair, treating row as unresolved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["line"])
}

func TestRead_BadCoordinateLineAfterMultilineField(t *testing.T) {
	input := "Name,Type,Address,City,Region,Latitude,Longitude\n" +
		"a,ITI,\"x\ny\nz\",Hubli,R,1,2\n" +
		"b,ITI,w,Hubli,R,north,75\n"
	_, err := Read(strings.NewReader(input), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 5")
}

func TestRead_BadCoordinate(t *testing.T) {
	input := "Name,Type,Address,City,Region,Latitude,Longitude\na,ITI,x,Hubli,R,north,75\n"
	_, err := Read(strings.NewReader(input), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse latitude")
}

func TestSave_RoundTripPreservesOrderAndPairs(t *testing.T) {
	in := []model.LocationRecord{
		{Name: "z", Category: model.CategoryMSME, Address: "Gokul Road, Hubli", City: "Hubli", Region: "Hubli/Dharwad"},
		{Name: "a", Category: model.CategoryITI, Address: "Vidyanagar, Hubli", City: "Hubli", Region: "Hubli/Dharwad",
			Coordinates: &model.Coordinates{Latitude: 15.3647, Longitude: 75.124}},
		{Name: "m", Category: model.CategoryITI, Address: "Kotur, Dharwad", City: "Hubli", Region: "Hubli/Dharwad"},
	}

	path := filepath.Join(t.TempDir(), "out", "geocoded.csv")
	require.NoError(t, Save(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name,Type,Address,City,Region,Latitude,Longitude", lines[0])
	assert.Equal(t, "z,MSME,\"Gokul Road, Hubli\",Hubli,Hubli/Dharwad,,", lines[1])
	assert.Equal(t, "a,ITI,\"Vidyanagar, Hubli\",Hubli,Hubli/Dharwad,15.3647,75.124", lines[2])

	out, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeRows_EmptyTableHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeRows(&buf, outputRows(nil)))
	assert.Equal(t, "Name,Type,Address,City,Region,Latitude,Longitude\n", buf.String())
}
