package recon

import (
	"sort"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
)

// NewSince devolve os registros estritamente acima do cursor na ordem total
// (timestamp, serial). hasMark=false significa watermark ausente: tudo é novo.
// A entrada não precisa estar ordenada. Um registro com o mesmo par
// (timestamp, serial) do watermark é entrega duplicada do vendor e fica fora.
func NewSince(records []vendor.TransactionRecord, mark watermark.Cursor, hasMark bool) []vendor.TransactionRecord {
	if !hasMark {
		out := make([]vendor.TransactionRecord, len(records))
		copy(out, records)
		return out
	}

	var out []vendor.TransactionRecord
	for _, r := range records {
		if watermark.Compare(r.Cursor(), mark) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// SortAscending ordena in-place do mais antigo pro mais novo por
// (timestamp, serial), a ordem que o ledger espera receber.
func SortAscending(records []vendor.TransactionRecord) {
	sort.Slice(records, func(i, j int) bool {
		return watermark.Compare(records[i].Cursor(), records[j].Cursor()) < 0
	})
}

// MaxCursor devolve o maior (timestamp, serial) do conjunto inteiro.
func MaxCursor(records []vendor.TransactionRecord) watermark.Cursor {
	var max watermark.Cursor
	for i, r := range records {
		if i == 0 || watermark.Compare(r.Cursor(), max) > 0 {
			max = r.Cursor()
		}
	}
	return max
}
