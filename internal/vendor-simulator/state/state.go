package state

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
)

// Store é o estado em memória do simulador: histórico do vendor por usuário,
// ledger idempotente e saldos derivados. Reseta na virada de dia UTC, igual
// ao watermark do gateway.
type Store struct {
	mu        sync.Mutex
	agency    string
	day       string
	serial    int
	histories map[string][]vendor.TransactionRecord // userID -> registros do dia
	seen      map[string]struct{}                   // chaves de idempotência do ledger
	balances  map[string]float64                    // userID -> saldo
}

func NewStore(agency string) *Store {
	return &Store{
		agency:    agency,
		day:       watermark.Day(time.Now()),
		histories: make(map[string][]vendor.TransactionRecord),
		seen:      make(map[string]struct{}),
		balances:  make(map[string]float64),
	}
}

func (s *Store) rollover() {
	today := watermark.Day(time.Now())
	if today != s.day {
		s.day = today
		s.serial = 0
		s.histories = make(map[string][]vendor.TransactionRecord)
	}
}

// AppendRandom gera até n transações novas para o usuário, com serial
// monotônico dentro do dia.
func (s *Store) AppendRandom(userID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()

	if _, ok := s.balances[userID]; !ok {
		// saldo inicial pra conseguir lançar jogo localmente
		s.balances[userID] = 1000.00
	}

	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		s.serial++
		bet := float64(rand.Intn(2000)+100) / 100
		win := 0.0
		if rand.Intn(100) < 40 {
			win = bet * (1 + rand.Float64())
		}
		s.histories[userID] = append(s.histories[userID], vendor.TransactionRecord{
			Agency:        s.agency,
			SerialNumber:  fmt.Sprintf("%06d", s.serial),
			Currency:      "BRL",
			GameID:        fmt.Sprintf("GAME_%03d", rand.Intn(20)+1),
			MemberAccount: vendor.MemberAccount(s.agency, userID),
			BetAmount:     bet,
			WinAmount:     win,
			Timestamp:     now.Format("2006-01-02 15:04:05"),
			RoundID:       fmt.Sprintf("R%d", rand.Int63()),
		})
	}
}

// History devolve a janela do dia (cópia).
func (s *Store) History(userID string) []vendor.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	recs := s.histories[userID]
	out := make([]vendor.TransactionRecord, len(recs))
	copy(out, recs)
	return out
}

func idemKey(r vendor.TransactionRecord) string {
	return r.Agency + "|" + r.SerialNumber + "|" + r.Timestamp + "|" + r.MemberAccount
}

// Ingest aplica os registros no ledger simulado.
// Idempotente por (agency, serial_number, timestamp, member_account):
// replays do gateway após watermark não avançado são absorvidos aqui.
func (s *Store) Ingest(records []vendor.TransactionRecord) (accepted int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		k := idemKey(r)
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		userID := vendor.UserFromMember(r.MemberAccount)
		s.balances[userID] += r.WinAmount - r.BetAmount
		accepted++
	}
	return accepted
}

// Balance devolve o saldo derivado do ledger simulado.
func (s *Store) Balance(userID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[userID]; !ok {
		s.balances[userID] = 1000.00
	}
	return s.balances[userID]
}
