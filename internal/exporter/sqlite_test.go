package exporter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipbreaking/internal/dataprocessing"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "db", "shipbreaking.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleCleaning() []*dataprocessing.CleaningResult {
	return []*dataprocessing.CleaningResult{{
		Source: "Year2020.csv",
		Year:   2020,
		Operations: []dataprocessing.CleaningOperation{
			{Timestamp: time.Now(), Source: "Year2020.csv", Year: 2020, Row: 3, RawIMO: "12345", Reason: dataprocessing.DropInvalidIMO},
			{Timestamp: time.Now(), Source: "Year2020.csv", Year: 2020, Row: 7, RawIMO: "1234567", Reason: dataprocessing.DropDuplicateIMO},
		},
	}}
}

func TestStore_SaveRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.SaveRun(ctx, "run-1", sampleRecords(), sampleCleaning(), sampleSummaries()))

	vessels, err := store.Vessels(ctx)
	require.NoError(t, err)
	require.Len(t, vessels, 2)

	assert.Equal(t, sampleRecords(), vessels)

	n, err := store.Count(ctx, "cleaning_log")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Count(ctx, "summaries")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_SaveRunReplacesPreviousRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.SaveRun(ctx, "run-1", sampleRecords(), sampleCleaning(), sampleSummaries()))
	require.NoError(t, store.SaveRun(ctx, "run-2", sampleRecords()[:1], nil, nil))

	n, err := store.Count(ctx, "vessels")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Count(ctx, "cleaning_log")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_NullValues(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	rec := domain.VesselRecord{IMO: 1234567, Name: "NULLS"}
	require.NoError(t, store.SaveRun(ctx, "run-1", []domain.VesselRecord{rec}, nil, nil))

	vessels, err := store.Vessels(ctx)
	require.NoError(t, err)
	require.Len(t, vessels, 1)
	assert.False(t, vessels[0].GT.Valid)
	assert.False(t, vessels[0].LDT.Valid)
	assert.False(t, vessels[0].Year.Valid)
	assert.Equal(t, domain.LDTSourceMissing, vessels[0].LDTSource)
}

func TestStore_CountUnknownTable(t *testing.T) {
	_, err := openTestStore(t).Count(context.Background(), "vessels; DROP TABLE vessels")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
