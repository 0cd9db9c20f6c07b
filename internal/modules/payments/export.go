package payments

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"paybridge.app/app/internal/storage"
)

// Exporter writes reconciliation snapshots of the payments table to storage.
type Exporter struct {
	store   Store
	storage storage.Storage
	now     func() time.Time
}

func NewExporter(store Store, st storage.Storage) *Exporter {
	return &Exporter{store: store, storage: st, now: time.Now}
}

type ExportResult struct {
	Key   string
	URL   string
	Count int
}

var exportHeader = []string{"order_id", "status", "amount", "currency", "buyer_email", "buyer_name", "buyer_phone", "created_at", "updated_at"}

// csvText prefixes caller-supplied text that a spreadsheet would evaluate
// as a formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// Export writes every record, or those with the given status, as CSV.
func (e *Exporter) Export(ctx context.Context, status string) (ExportResult, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		if _, err := ParseStatus(status); err != nil {
			return ExportResult{}, &ValidationError{Fields: map[string]string{"status": "must be pending, completed or failed"}}
		}
	}

	all, err := e.store.ListAll(ctx)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return ExportResult{}, err
	}
	n := 0
	for _, p := range all {
		if status != "" && string(p.Status) != status {
			continue
		}
		row := []string{
			csvText(p.OrderID),
			string(p.Status),
			p.Amount.StringFixed(2),
			p.Currency,
			csvText(p.BuyerEmail),
			csvText(p.BuyerName),
			csvText(p.BuyerPhone),
			p.CreatedAt.UTC().Format(time.RFC3339),
			p.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return ExportResult{}, err
		}
		n++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	name := "all"
	if status != "" {
		name = status
	}
	key := fmt.Sprintf("exports/payments-%s-%s.csv", name, e.now().UTC().Format("20060102T150405Z"))

	res, err := e.storage.Put(ctx, bytes.NewReader(buf.Bytes()), storage.PutInput{
		Key:         key,
		Filename:    "payments.csv",
		ContentType: "text/csv",
		Size:        int64(buf.Len()),
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("export upload: %w", err)
	}
	return ExportResult{Key: res.Key, URL: res.URL, Count: n}, nil
}
