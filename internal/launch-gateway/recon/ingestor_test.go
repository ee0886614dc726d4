package recon

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
)

type fakeSender struct {
	batches [][]vendor.TransactionRecord
	sentAt  []time.Time
	fail    map[int]bool // índice do batch -> falha
	onSend  func(batchIdx int)
}

func (f *fakeSender) IngestBatch(ctx context.Context, records []vendor.TransactionRecord) error {
	idx := len(f.batches)
	cp := make([]vendor.TransactionRecord, len(records))
	copy(cp, records)
	f.batches = append(f.batches, cp)
	f.sentAt = append(f.sentAt, time.Now())
	if f.onSend != nil {
		f.onSend(idx)
	}
	if f.fail[idx] {
		return errors.New("ledger busy")
	}
	return ctx.Err()
}

type fakeCursorStore struct {
	marks map[string]watermark.Watermark
	sets  int
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{marks: make(map[string]watermark.Watermark)}
}

func (f *fakeCursorStore) Get(_ context.Context, userID, day string) (watermark.Watermark, bool) {
	w, ok := f.marks[userID]
	if !ok || !w.CurrentFor(day) {
		return watermark.Watermark{}, false
	}
	return w, true
}

func (f *fakeCursorStore) Set(_ context.Context, userID string, w watermark.Watermark) error {
	f.sets++
	f.marks[userID] = w
	return nil
}

func genRecords(n int) []vendor.TransactionRecord {
	out := make([]vendor.TransactionRecord, 0, n)
	for i := n - 1; i >= 0; i-- { // propositalmente fora de ordem
		out = append(out, vendor.TransactionRecord{
			Timestamp:    fmt.Sprintf("2025-01-01 10:%02d:%02d", i/60, i%60),
			SerialNumber: fmt.Sprintf("%06d", i+1),
		})
	}
	return out
}

func TestIngestor_Batching120(t *testing.T) {
	sender := &fakeSender{}
	store := newFakeCursorStore()
	in := NewIngestor(sender, store, 50, 5*time.Millisecond, zap.NewNop())

	res, err := in.Run(context.Background(), "u1", "2025-01-01", genRecords(120))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantSizes := []int{50, 50, 20}
	if len(sender.batches) != len(wantSizes) {
		t.Fatalf("sent %d batches; want %d", len(sender.batches), len(wantSizes))
	}
	for i, want := range wantSizes {
		if len(sender.batches[i]) != want {
			t.Errorf("batch %d size = %d; want %d", i, len(sender.batches[i]), want)
		}
	}

	// ordem ascendente atravessando batches
	var prev watermark.Cursor
	first := true
	for _, b := range sender.batches {
		for _, r := range b {
			if !first && watermark.Compare(prev, r.Cursor()) >= 0 {
				t.Fatalf("batches not strictly ascending: %v then %v", prev, r.Cursor())
			}
			prev = r.Cursor()
			first = false
		}
	}

	// pausa entre batches consecutivos
	for i := 1; i < len(sender.sentAt); i++ {
		if gap := sender.sentAt[i].Sub(sender.sentAt[i-1]); gap < 5*time.Millisecond {
			t.Errorf("gap between batch %d and %d = %v; want >= 5ms", i-1, i, gap)
		}
	}

	if !res.Advanced {
		t.Fatalf("watermark not advanced")
	}
	if res.Watermark.LastSerial != "000120" {
		t.Errorf("watermark serial = %s; want 000120", res.Watermark.LastSerial)
	}
	if res.Watermark.Day != "2025-01-01" {
		t.Errorf("watermark day = %s; want 2025-01-01", res.Watermark.Day)
	}
}

func TestIngestor_PartialFailureContinues(t *testing.T) {
	sender := &fakeSender{fail: map[int]bool{1: true}}
	store := newFakeCursorStore()
	in := NewIngestor(sender, store, 2, 0, zap.NewNop())

	res, err := in.Run(context.Background(), "u1", "2025-01-01", genRecords(5))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(sender.batches) != 3 {
		t.Fatalf("sent %d batches; want 3 (failure must not abort the run)", len(sender.batches))
	}
	if len(res.Committed) != 3 {
		t.Errorf("committed = %d; want 3", len(res.Committed))
	}
	if len(res.Failed) != 2 {
		t.Errorf("failed = %d; want 2", len(res.Failed))
	}

	// watermark avança sobre o conjunto inteiro, não só sobre o que passou
	if !res.Advanced {
		t.Fatalf("watermark not advanced after observing all batches")
	}
	if res.Watermark.LastSerial != "000005" {
		t.Errorf("watermark serial = %s; want 000005", res.Watermark.LastSerial)
	}
}

func TestIngestor_CancelledRunCommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sender := &fakeSender{onSend: func(idx int) {
		if idx == 0 {
			cancel() // desmontagem no meio da passada
		}
	}}
	store := newFakeCursorStore()
	in := NewIngestor(sender, store, 2, 0, zap.NewNop())

	res, err := in.Run(ctx, "u1", "2025-01-01", genRecords(6))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v; want context.Canceled", err)
	}
	if res.Advanced {
		t.Errorf("cancelled run advanced the watermark")
	}
	if store.sets != 0 {
		t.Errorf("store.Set called %d times on cancelled run; want 0", store.sets)
	}
	if len(res.Remaining) == 0 {
		t.Errorf("cancelled run reported no remaining records")
	}
}

func TestIngestor_EmptySet(t *testing.T) {
	sender := &fakeSender{}
	store := newFakeCursorStore()
	in := NewIngestor(sender, store, 50, 0, zap.NewNop())

	res, err := in.Run(context.Background(), "u1", "2025-01-01", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(sender.batches) != 0 || res.Advanced {
		t.Errorf("empty set caused sends or watermark advance")
	}
}
