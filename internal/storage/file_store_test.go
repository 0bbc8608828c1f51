package storage

import (
	"context"
	"nfcattend/internal/models"
	"nfcattend/internal/storage/interfaces"
	"nfcattend/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T, compress bool) (*FileStore, string, *testutil.MockLogger) {
	t.Helper()
	dir := t.TempDir()
	conf := testutil.TestConfig(dir)
	conf.Storage.File.Compress = compress

	var compressor interfaces.CompressorInterface
	if compress {
		c, err := NewZstdCompressor()
		require.NoError(t, err)
		t.Cleanup(c.Close)
		compressor = c
	}

	logger := &testutil.MockLogger{}
	fs, err := NewFileStore(conf, compressor, logger)
	require.NoError(t, err)
	return fs, dir, logger
}

func signedOutRecord(in time.Time, hours float64) *models.EventRecord {
	return &models.EventRecord{
		SignInTime:  models.NewTimestamp(in),
		SignOutTime: models.NewTimestamp(in.Add(time.Duration(hours * float64(time.Hour)))),
		Hours:       hours,
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	fs, _, _ := newTestFileStore(t, false)

	doc, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Attendance)
	assert.Empty(t, doc.CardNames)
}

func TestFileStore_PutRecordAndName(t *testing.T) {
	fs, dir, _ := newTestFileStore(t, false)
	ctx := context.Background()
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, fs.PutRecord(ctx, "2024-01-15", "A1", signedOutRecord(in, 3)))
	require.NoError(t, fs.PutName(ctx, "A1", "Ana"))

	doc, err := fs.Load(ctx)
	require.NoError(t, err)
	rec, ok := doc.Record("2024-01-15", "A1")
	require.True(t, ok)
	assert.Equal(t, 3.0, rec.Hours)
	assert.True(t, rec.SignInTime.Equal(in))
	assert.Equal(t, "Ana", doc.CardNames["A1"])

	_, err = os.Stat(filepath.Join(dir, attendanceFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, attendanceFile+".tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must not survive a write")
}

func TestFileStore_ImportMergesWithoutRemoving(t *testing.T) {
	fs, _, _ := newTestFileStore(t, false)
	ctx := context.Background()
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, fs.PutRecord(ctx, "2024-01-15", "A1", signedOutRecord(in, 1)))

	incoming := models.NewDocument()
	incoming.PutRecord("2024-01-16", "B2", signedOutRecord(in.AddDate(0, 0, 1), 2))
	incoming.Attendance["2024-01-17"] = models.DayMap{}
	incoming.CardNames["B2"] = "Ben"
	require.NoError(t, fs.Import(ctx, incoming))

	doc, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Attendance, 3)
	_, ok := doc.Record("2024-01-15", "A1")
	assert.True(t, ok)
	assert.Contains(t, doc.Attendance, "2024-01-17")
	assert.Equal(t, "Ben", doc.CardNames["B2"])
}

func TestFileStore_CorruptFileIsBackedUp(t *testing.T) {
	fs, dir, logger := newTestFileStore(t, false)
	path := filepath.Join(dir, attendanceFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	doc, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Attendance)

	backup, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestFileStore_LegacyLayout(t *testing.T) {
	fs, dir, _ := newTestFileStore(t, false)
	legacy := `{"2024-01-15": {"A1": {"timestamp": "2024-01-15T09:00:00", "signed_in": true}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, attendanceFile), []byte(legacy), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, cardNamesFile), []byte(`{"A1": "Ana"}`), 0644))

	doc, err := fs.Load(context.Background())
	require.NoError(t, err)
	rec, ok := doc.Record("2024-01-15", "A1")
	require.True(t, ok)
	assert.True(t, rec.SignedIn)
	require.NotNil(t, rec.SignInTime)
	assert.Equal(t, 9, rec.SignInTime.Hour())
	assert.Equal(t, "Ana", doc.CardNames["A1"])
}

func TestFileStore_UnrelatedWriteKeepsStoredValues(t *testing.T) {
	fs, dir, _ := newTestFileStore(t, false)
	stored := `{"2024-01-01": {"A1": {"sign_out_time": "Mon Jan 01 2024 13:00:00 GMT+0000", "signed_in": false, "hours": 4}}, "2024-01-03": null}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, attendanceFile), []byte(stored), 0644))

	require.NoError(t, fs.PutName(context.Background(), "B2", "Bob"))

	data, err := os.ReadFile(filepath.Join(dir, attendanceFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mon Jan 01 2024 13:00:00 GMT+0000")

	doc, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, doc.Attendance, "2024-01-03")
	rec, ok := doc.Record("2024-01-01", "A1")
	require.True(t, ok)
	require.NotNil(t, rec.SignOutTime)
	assert.Equal(t, "Mon Jan 01 2024 13:00:00 GMT+0000", rec.SignOutTime.Raw())
}

func TestFileStore_Compressed(t *testing.T) {
	fs, dir, _ := newTestFileStore(t, true)
	ctx := context.Background()
	in := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)

	require.NoError(t, fs.PutRecord(ctx, "2024-02-01", "C3", signedOutRecord(in, 1.5)))

	raw, err := os.ReadFile(filepath.Join(dir, attendanceFile+zstdSuffix))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "2024-02-01")

	doc, err := fs.Load(ctx)
	require.NoError(t, err)
	rec, ok := doc.Record("2024-02-01", "C3")
	require.True(t, ok)
	assert.Equal(t, 1.5, rec.Hours)
}

func TestFileStore_UpdatedAt(t *testing.T) {
	fs, _, _ := newTestFileStore(t, false)
	ctx := context.Background()

	ts, err := fs.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	require.NoError(t, fs.PutName(ctx, "A1", "Ana"))
	ts, err = fs.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}
