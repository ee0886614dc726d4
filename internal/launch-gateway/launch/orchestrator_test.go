package launch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/balance"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/provider"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/recon"
)

type fakeSyncer struct {
	calls int
	out   recon.SyncOutcome
	err   error
}

func (f *fakeSyncer) Sync(ctx context.Context, userID string) (recon.SyncOutcome, error) {
	f.calls++
	return f.out, f.err
}

type fakeBalances struct {
	calls int
	snap  balance.Snapshot
	err   error
}

func (f *fakeBalances) Get(ctx context.Context, userID string) (balance.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

type fakeProvider struct {
	calls   int
	url     string
	err     error
	payload provider.LaunchPayload
}

func (f *fakeProvider) Launch(ctx context.Context, p provider.LaunchPayload) (string, error) {
	f.calls++
	f.payload = p
	return f.url, f.err
}

type fakeFlag struct{ sets int }

func (f *fakeFlag) Set(ctx context.Context, userID string) error {
	f.sets++
	return nil
}

func synced(amount float64) recon.SyncOutcome {
	return recon.SyncOutcome{Balance: balance.Snapshot{UserID: "u1", Amount: amount, Currency: "BRL"}, BalanceOK: true}
}

func newTestOrchestrator(s *fakeSyncer, b *fakeBalances, p *fakeProvider, f *fakeFlag) *Orchestrator {
	return NewOrchestrator(s, b, p, f, nil, "ag", "BRL", "pt", "http://home.local", zap.NewNop())
}

// Cenário D: regra ["slot"], jogo "fishing" -> bloqueia antes de qualquer
// chamada de rede.
func TestLaunch_NotEligibleShortCircuits(t *testing.T) {
	s := &fakeSyncer{out: synced(100)}
	p := &fakeProvider{url: "http://play/x"}
	res := newTestOrchestrator(s, &fakeBalances{}, p, &fakeFlag{}).Launch(context.Background(), Params{
		UserID:             "u1",
		GameID:             "G1",
		GameCategory:       "fishing",
		EligibleCategories: []string{"slot"},
		Platform:           PlatformWeb,
	})

	if res.State != StateBlocked || res.Reason != ReasonNotEligible {
		t.Fatalf("result = %+v; want Blocked/not_eligible", res)
	}
	if s.calls != 0 {
		t.Errorf("reconciliation ran %d times before eligibility block; want 0", s.calls)
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times; want 0", p.calls)
	}
}

func TestLaunch_EligibilitySentinelAndEmpty(t *testing.T) {
	cases := []struct {
		rules []string
		want  bool
	}{
		{nil, true},
		{[]string{}, true},
		{[]string{EligibleAll}, true},
		{[]string{"slot", "fishing"}, true},
		{[]string{"live"}, false},
	}
	for _, c := range cases {
		if got := eligible("fishing", c.rules); got != c.want {
			t.Errorf("eligible(fishing, %v) = %v; want %v", c.rules, got, c.want)
		}
	}
}

// Cenário C: saldo 0 no gate -> Blocked(insufficient_balance), nenhum POST de launch.
func TestLaunch_ZeroBalanceBlocked(t *testing.T) {
	s := &fakeSyncer{out: synced(0)}
	p := &fakeProvider{url: "http://play/x"}
	f := &fakeFlag{}
	res := newTestOrchestrator(s, &fakeBalances{}, p, f).Launch(context.Background(), Params{
		UserID: "u1", GameID: "G1", GameCategory: "slot", Platform: PlatformWeb,
	})

	if res.State != StateBlocked || res.Reason != ReasonInsufficientBalance {
		t.Fatalf("result = %+v; want Blocked/insufficient_balance", res)
	}
	if p.calls != 0 {
		t.Errorf("provider called with zero balance")
	}
	if f.sets != 0 {
		t.Errorf("resync flag set on blocked launch")
	}
}

// Cenário E: provider responde code != 0 -> Failed com a mensagem do provider,
// sem navegação (flag não marcado).
func TestLaunch_ProviderErrorFails(t *testing.T) {
	s := &fakeSyncer{out: synced(50)}
	p := &fakeProvider{err: &provider.Error{Code: 1001, Message: "agency credit exhausted"}}
	f := &fakeFlag{}
	res := newTestOrchestrator(s, &fakeBalances{}, p, f).Launch(context.Background(), Params{
		UserID: "u1", GameID: "G1", GameCategory: "slot", Platform: PlatformWeb,
	})

	if res.State != StateFailed {
		t.Fatalf("state = %s; want failed", res.State)
	}
	if res.Message != "agency credit exhausted" {
		t.Errorf("message = %q; want provider message", res.Message)
	}
	if res.RedirectURL != "" {
		t.Errorf("redirect url on failed launch: %q", res.RedirectURL)
	}
	if f.sets != 0 {
		t.Errorf("resync flag set on failed launch")
	}
}

func TestLaunch_SuccessBuildsPayloadAndSetsFlag(t *testing.T) {
	s := &fakeSyncer{out: synced(123.4)}
	p := &fakeProvider{url: "http://play.local/session/1"}
	f := &fakeFlag{}
	res := newTestOrchestrator(s, &fakeBalances{}, p, f).Launch(context.Background(), Params{
		UserID: "77", GameID: "G9", GameCategory: "slot", Platform: PlatformMobile,
	})

	if res.State != StateRedirecting || res.RedirectURL != "http://play.local/session/1" {
		t.Fatalf("result = %+v; want Redirecting with url", res)
	}
	if s.calls != 1 {
		t.Errorf("sync calls = %d; want 1 (mandatory pre-launch pass)", s.calls)
	}
	if f.sets != 1 {
		t.Errorf("resync flag sets = %d; want 1", f.sets)
	}

	pay := p.payload
	if pay.CreditAmount != "123.40" {
		t.Errorf("credit_amount = %q; want 123.40", pay.CreditAmount)
	}
	if pay.MemberAccount != "ag_77" {
		t.Errorf("member_account = %q; want ag_77", pay.MemberAccount)
	}
	if pay.Platform != 2 {
		t.Errorf("platform = %d; want 2", pay.Platform)
	}
	if pay.Timestamp <= 0 {
		t.Errorf("timestamp = %d; want unix ms", pay.Timestamp)
	}
	if !strings.Contains(pay.TransferID, "-") || len(pay.TransferID) < 15 {
		t.Errorf("transfer id %q doesn't look like ms-timestamp + random", pay.TransferID)
	}
}

// Reconciliação é best-effort: falha de sync não derruba o launch,
// o gate usa o saldo que estiver disponível.
func TestLaunch_SyncFailureFallsBackToCachedBalance(t *testing.T) {
	s := &fakeSyncer{err: errors.New("vendor down")}
	b := &fakeBalances{snap: balance.Snapshot{UserID: "u1", Amount: 42, Currency: "BRL"}}
	p := &fakeProvider{url: "http://play/x"}
	res := newTestOrchestrator(s, b, p, &fakeFlag{}).Launch(context.Background(), Params{
		UserID: "u1", GameID: "G1", GameCategory: "slot", Platform: PlatformWeb,
	})

	if res.State != StateRedirecting {
		t.Fatalf("state = %s; want redirecting (best-effort reconciliation)", res.State)
	}
	if b.calls != 1 {
		t.Errorf("cached balance reads = %d; want 1", b.calls)
	}
	if p.payload.CreditAmount != "42.00" {
		t.Errorf("credit_amount = %q; want 42.00", p.payload.CreditAmount)
	}
}

func TestNewTransferID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		id := NewTransferID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate transfer id %q after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}
