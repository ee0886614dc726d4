package watermark

import "time"

// Cursor identifica a posição de uma transação do vendor dentro de um dia.
// Timestamps vêm como "YYYY-MM-DD HH:mm:ss", então a ordem lexicográfica
// coincide com a ordem temporal; serial só desempata timestamps iguais.
type Cursor struct {
	Timestamp string
	Serial    string
}

func (c Cursor) IsZero() bool { return c.Timestamp == "" && c.Serial == "" }

// Compare retorna -1, 0 ou 1 para a ordem total (timestamp, serial).
func Compare(a, b Cursor) int {
	switch {
	case a.Timestamp < b.Timestamp:
		return -1
	case a.Timestamp > b.Timestamp:
		return 1
	case a.Serial < b.Serial:
		return -1
	case a.Serial > b.Serial:
		return 1
	}
	return 0
}

// Watermark é o cursor da última transação já encaminhada ao ledger,
// amarrado ao dia UTC em que foi gravado. Layout persistido por usuário.
type Watermark struct {
	Day           string `json:"date"` // "YYYY-MM-DD" em UTC
	LastTimestamp string `json:"lastTimestamp"`
	LastSerial    string `json:"lastSerial"`
}

func (w Watermark) Cursor() Cursor {
	return Cursor{Timestamp: w.LastTimestamp, Serial: w.LastSerial}
}

// CurrentFor informa se o watermark ainda vale para o dia consultado.
// Um watermark de outro dia é tratado como ausente (reset preguiçoso),
// mesmo com timestamp/serial preenchidos.
func (w Watermark) CurrentFor(day string) bool {
	return w.Day != "" && w.Day == day
}

// Day formata o dia UTC usado como escopo do watermark.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
