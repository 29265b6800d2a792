package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shipbreaking/pkg/contracts/domain"
)

func TestWorkbookExporter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "unified.xlsx")

	err := NewWorkbookExporter(nil).Write(path, sampleRecords(), sampleSummaries())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{UnifiedSheet, "By TYPE", "By YEAR"}, f.GetSheetList())

	rows, err := f.GetRows(UnifiedSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, DatasetHeaders(), rows[0])
	assert.Equal(t, "0123456", rows[1][1], "IMO keeps its leading zero")
	assert.Equal(t, "ALPHA", rows[1][2])
	assert.Equal(t, "600", rows[1][5])
	assert.Equal(t, "regression", rows[1][11])
	assert.Equal(t, "", rows[2][4], "null GT is an empty cell")

	summary, err := f.GetRows(SummarySheetName(domain.DimensionType))
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, SummaryHeaders, summary[0])
	assert.Equal(t, "Bulk", summary[1][0])
	assert.Equal(t, "2", summary[1][1])
}

func TestWorkbookExporter_EmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, NewWorkbookExporter(nil).Write(path, nil, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(UnifiedSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
