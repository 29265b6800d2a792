package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shipbreaking/internal/config"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/internal/files"
)

func newTestLoader() *Loader {
	return NewLoader(config.Default().Input, nil, nil)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Year2014.csv",
		"\xef\xbb\xbfNAME,IMO,GT\n"+
			"ALPHA,1234567,\"1,200\"\n"+
			"\n"+
			"BETA,7654321\n"+
			"GAMMA,1111111,500,extra\n")

	raw, err := newTestLoader().LoadCSV(path, 2014)
	require.NoError(t, err)

	assert.Equal(t, 2014, raw.Year)
	assert.Equal(t, "Year2014.csv", raw.Source)
	assert.Equal(t, []string{"NAME", "IMO", "GT"}, raw.Header)
	assert.Equal(t, 1, raw.HeaderRow)
	require.Equal(t, 3, raw.Len())
	assert.Equal(t, []string{"ALPHA", "1234567", "1,200"}, raw.Rows[0])
	assert.Equal(t, []string{"BETA", "7654321"}, raw.Rows[1], "ragged rows are kept")
	assert.Equal(t, []int{2, 4, 5}, raw.RowNumbers)
}

func TestLoadCSV_HeaderAfterTitleRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Year2015.csv",
		"Ship Breaking Records 2015\n"+
			",,\n"+
			"Name of Ship,IMO Number,Gross Tonnage\n"+
			"ALPHA,1234567,900\n")

	raw, err := newTestLoader().LoadCSV(path, 2015)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name of Ship", "IMO Number", "Gross Tonnage"}, raw.Header)
	assert.Equal(t, 3, raw.HeaderRow)
	assert.Equal(t, []int{4}, raw.RowNumbers)
}

func TestLoadCSV_Semicolon(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Year2016.csv", "IMO;NAME\n1234567;ALPHA\n")

	cfg := config.Default().Input
	cfg.Delimiter = ";"
	raw, err := NewLoader(cfg, nil, nil).LoadCSV(path, 2016)
	require.NoError(t, err)
	assert.Equal(t, []string{"IMO", "NAME"}, raw.Header)
	assert.Equal(t, []string{"1234567", "ALPHA"}, raw.Rows[0])
}

func TestLoadCSV_NoIMOHeaderUsesFirstRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Year2017.csv", "\n\nVESSEL,GT\nALPHA,100\n")

	raw, err := newTestLoader().LoadCSV(path, 2017)
	require.NoError(t, err)
	assert.Equal(t, []string{"VESSEL", "GT"}, raw.Header)
	assert.Equal(t, 1, raw.Len())
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Year2018.xlsx")

	f := excelize.NewFile()
	// First sheet has no vessel data
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Notes"))
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Data", "A1", "Shipbreaking 2018"))
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]interface{}{"IMO NO.", "VESSEL NAME", "LDT"}))
	require.NoError(t, f.SetSheetRow("Data", "A4", &[]interface{}{"9074729", "OCEAN STAR", 8000}))
	require.NoError(t, f.SetSheetRow("Data", "A6", &[]interface{}{"9176187", "SEA LION", 6500}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	raw, err := newTestLoader().LoadXLSX(path, 2018)
	require.NoError(t, err)

	assert.Equal(t, []string{"IMO NO.", "VESSEL NAME", "LDT"}, raw.Header)
	assert.Equal(t, 3, raw.HeaderRow)
	require.Equal(t, 2, raw.Len())
	assert.Equal(t, []string{"9074729", "OCEAN STAR", "8000"}, raw.Rows[0])
	assert.Equal(t, []int{4, 6}, raw.RowNumbers)
}

func TestLoadXLSX_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Year2019.xlsx", "not a workbook")

	_, err := newTestLoader().LoadXLSX(path, 2019)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestLoadAll_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Year2014.csv", "IMO,NAME\n1234567,ALPHA\n")

	yearFiles := []files.YearFile{
		{Year: 2014, Path: filepath.Join(dir, "Year2014.csv"), Name: "Year2014.csv", Format: files.FormatCSV},
		{Year: 2015, Path: filepath.Join(dir, "Year2015.csv"), Name: "Year2015.csv", Format: files.FormatCSV},
	}

	tables, issues, err := newTestLoader().LoadAll(context.Background(), yearFiles)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 2014, tables[0].Year)
	require.Len(t, issues, 1)
	assert.Equal(t, 2015, issues[0].Year)
	assert.Contains(t, issues[0].Reason, "not found")
}

func TestLoadAll_NothingLoads(t *testing.T) {
	dir := t.TempDir()
	yearFiles := []files.YearFile{
		{Year: 2015, Path: filepath.Join(dir, "Year2015.csv"), Name: "Year2015.csv", Format: files.FormatCSV},
	}

	_, issues, err := newTestLoader().LoadAll(context.Background(), yearFiles)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Len(t, issues, 1)
}

func TestLoadAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestLoader().LoadAll(ctx, []files.YearFile{{Year: 2014}})
	assert.ErrorIs(t, err, context.Canceled)
}
