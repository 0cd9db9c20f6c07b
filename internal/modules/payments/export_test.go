package payments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paybridge.app/app/internal/storage"
)

func TestExportWritesCSV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		_, err := store.Create(ctx, samplePayment(id))
		require.NoError(t, err)
	}
	_, err := store.UpdateStatus(ctx, "ORD-2", StatusCompleted, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	exp := NewExporter(store, storage.NewLocal(dir, "/files"))
	exp.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	res, err := exp.Export(ctx, "completed")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, "exports/payments-completed-20260301T120000Z.csv", res.Key)
	require.Equal(t, "/files/exports/payments-completed-20260301T120000Z.csv", res.URL)

	f, err := os.Open(filepath.Join(dir, "exports", "payments-completed-20260301T120000Z.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, exportHeader, rows[0])
	require.Equal(t, "ORD-2", rows[1][0])
	require.Equal(t, "completed", rows[1][1])
	require.Equal(t, "50000.00", rows[1][2])

	all, err := exp.Export(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 3, all.Count)
}

func TestExportRejectsUnknownStatus(t *testing.T) {
	exp := NewExporter(newTestStore(t), storage.NewLocal(t.TempDir(), "/files"))
	_, err := exp.Export(context.Background(), "refunded")
	require.Contains(t, invalidFields(t, err), "status")
}

func TestExportNeutralizesFormulaCells(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := samplePayment("ORD-1")
	p.BuyerName = `=HYPERLINK("http://x.test","click")`
	p.BuyerEmail = "@evil@y.com"
	_, err := store.Create(ctx, p)
	require.NoError(t, err)

	dir := t.TempDir()
	res, err := NewExporter(store, storage.NewLocal(dir, "/files")).Export(ctx, "")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, `'=HYPERLINK("http://x.test","click")`, rows[1][5])
	require.Equal(t, "'@evil@y.com", rows[1][4])
	require.Equal(t, "ORD-1", rows[1][0])
}

func TestCSVText(t *testing.T) {
	for in, want := range map[string]string{
		"":      "",
		"Asha":  "Asha",
		"+255":  "'+255",
		"-1+1":  "'-1+1",
		"\tcmd": "'\tcmd",
		"a=b":   "a=b",
	} {
		require.Equal(t, want, csvText(in), "%q", in)
	}
}
