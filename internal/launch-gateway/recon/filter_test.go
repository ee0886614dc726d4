package recon

import (
	"testing"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
)

func rec(ts, serial string) vendor.TransactionRecord {
	return vendor.TransactionRecord{Timestamp: ts, SerialNumber: serial}
}

func TestNewSince_AbsentWatermark(t *testing.T) {
	records := []vendor.TransactionRecord{
		rec("2025-01-01 10:00:00", "1"),
		rec("2025-01-01 09:00:00", "7"),
	}
	got := NewSince(records, watermark.Cursor{}, false)
	if len(got) != 2 {
		t.Errorf("NewSince(absent) returned %d records; want 2", len(got))
	}
}

func TestNewSince_StrictlyGreater(t *testing.T) {
	mark := watermark.Cursor{Timestamp: "2025-01-01 10:00:00", Serial: "5"}
	records := []vendor.TransactionRecord{
		rec("2025-01-01 09:59:59", "9"), // antigo
		rec("2025-01-01 10:00:00", "4"), // mesmo ts, serial menor
		rec("2025-01-01 10:00:00", "5"), // duplicata exata do watermark
		rec("2025-01-01 10:00:00", "6"), // novo: serial maior
		rec("2025-01-01 10:00:01", "1"), // novo: ts maior
	}

	got := NewSince(records, mark, true)
	if len(got) != 2 {
		t.Fatalf("NewSince returned %d records; want 2", len(got))
	}
	for _, r := range got {
		if watermark.Compare(r.Cursor(), mark) <= 0 {
			t.Errorf("record %v not strictly greater than watermark %v", r.Cursor(), mark)
		}
	}
}

// Rodar o filtro de novo com o watermark avançado sobre o mesmo conjunto
// tem que devolver vazio.
func TestNewSince_Idempotent(t *testing.T) {
	records := []vendor.TransactionRecord{
		rec("2025-01-01 10:00:00", "1"),
		rec("2025-01-01 10:00:00", "2"),
		rec("2025-01-01 11:00:00", "3"),
	}

	fresh := NewSince(records, watermark.Cursor{}, false)
	advanced := MaxCursor(fresh)

	again := NewSince(records, advanced, true)
	if len(again) != 0 {
		t.Errorf("filter after advance returned %d records; want 0", len(again))
	}
}

func TestSortAscending_UnorderedInput(t *testing.T) {
	records := []vendor.TransactionRecord{
		rec("2025-01-01 11:00:00", "1"),
		rec("2025-01-01 10:00:00", "9"),
		rec("2025-01-01 10:00:00", "2"),
	}
	SortAscending(records)

	for i := 1; i < len(records); i++ {
		if watermark.Compare(records[i-1].Cursor(), records[i].Cursor()) > 0 {
			t.Fatalf("records not ascending at %d: %v > %v", i, records[i-1].Cursor(), records[i].Cursor())
		}
	}
	if records[0].SerialNumber != "2" || records[2].Timestamp != "2025-01-01 11:00:00" {
		t.Errorf("unexpected order: %v", records)
	}
}

func TestMaxCursor(t *testing.T) {
	records := []vendor.TransactionRecord{
		rec("2025-01-01 10:00:00", "9"),
		rec("2025-01-01 11:00:00", "1"),
		rec("2025-01-01 11:00:00", "0"),
	}
	got := MaxCursor(records)
	want := watermark.Cursor{Timestamp: "2025-01-01 11:00:00", Serial: "1"}
	if got != want {
		t.Errorf("MaxCursor = %v; want %v", got, want)
	}
}
