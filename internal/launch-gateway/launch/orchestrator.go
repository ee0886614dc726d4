package launch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/balance"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/gwmetrics"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/provider"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/recon"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/pkg/contracts/events"
)

// State é o estado corrente de uma tentativa de launch.
type State string

const (
	StateIdle             State = "idle"
	StateEligibilityCheck State = "eligibility_check"
	StateReconciling      State = "reconciling"
	StateBalanceGate      State = "balance_gate"
	StatePayloadBuild     State = "payload_build"
	StateRequesting       State = "requesting"
	StateRedirecting      State = "redirecting"
	StateBlocked          State = "blocked"
	StateFailed           State = "failed"
)

// Motivos de bloqueio visíveis ao usuário.
const (
	ReasonNotEligible         = "not_eligible"
	ReasonInsufficientBalance = "insufficient_balance"
)

// PlatformClass é informada pelo caller (camada de apresentação);
// o orquestrador não fareja user-agent.
type PlatformClass int

const (
	PlatformWeb    PlatformClass = 1
	PlatformMobile PlatformClass = 2
)

// EligibleAll é o sentinela de "sem restrição" dentro do conjunto de regras.
const EligibleAll = "*"

// Params é a entrada de uma tentativa de launch.
type Params struct {
	UserID             string
	GameID             string
	GameCategory       string
	EligibleCategories []string // vazio ou contendo EligibleAll = sem restrição
	Platform           PlatformClass
}

// Result é o desfecho de uma tentativa. RedirectURL só em StateRedirecting;
// Reason só em StateBlocked; Message acompanha Blocked e Failed.
type Result struct {
	State       State
	RedirectURL string
	Reason      string
	Message     string
}

// Syncer roda a passada de reconciliação pré-launch.
type Syncer interface {
	Sync(ctx context.Context, userID string) (recon.SyncOutcome, error)
}

// BalanceSource fornece o snapshot quando a reconciliação não trouxe um.
type BalanceSource interface {
	Get(ctx context.Context, userID string) (balance.Snapshot, error)
}

// LaunchClient pede a URL de sessão ao provider.
type LaunchClient interface {
	Launch(ctx context.Context, p provider.LaunchPayload) (string, error)
}

// FlagSetter marca o "ressincronizar na volta" antes da navegação.
type FlagSetter interface {
	Set(ctx context.Context, userID string) error
}

// LaunchPublisher publica o evento de launch efetivado. Pode ser nil.
type LaunchPublisher interface {
	PublishGameLaunched(ctx context.Context, e events.GameLaunched) error
}

// Orchestrator conduz uma tentativa de launch do início ao redirect.
//
// A navegação pro provider é o único efeito irreversível do fluxo e por isso
// é o último passo: elegibilidade barra antes de qualquer chamada de rede,
// a reconciliação é best-effort e o gate de saldo decide com o snapshot
// resolvido.
type Orchestrator struct {
	syncer   Syncer
	balances BalanceSource
	provider LaunchClient
	flag     FlagSetter
	publ     LaunchPublisher
	log      *zap.Logger

	agency   string
	currency string
	language string
	homeURL  string
}

func NewOrchestrator(
	syncer Syncer,
	balances BalanceSource,
	prov LaunchClient,
	flag FlagSetter,
	publ LaunchPublisher,
	agency, currency, language, homeURL string,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		syncer:   syncer,
		balances: balances,
		provider: prov,
		flag:     flag,
		publ:     publ,
		log:      log,
		agency:   agency,
		currency: currency,
		language: language,
		homeURL:  homeURL,
	}
}

// eligible aplica o conjunto de regras de promoção do caller.
// Lista vazia ou contendo o sentinela = sem restrição.
func eligible(category string, rules []string) bool {
	if len(rules) == 0 {
		return true
	}
	for _, r := range rules {
		if r == EligibleAll || r == category {
			return true
		}
	}
	return false
}

// Launch executa a máquina de estados de uma tentativa.
func (o *Orchestrator) Launch(ctx context.Context, p Params) Result {
	// Idle → EligibilityCheck: barra antes de qualquer chamada de rede
	if !eligible(p.GameCategory, p.EligibleCategories) {
		o.log.Info("launch blocked",
			zap.String("userId", p.UserID),
			zap.String("gameId", p.GameID),
			zap.String("reason", ReasonNotEligible),
		)
		gwmetrics.Launches.WithLabelValues(string(StateBlocked)).Inc()
		return Result{
			State:   StateBlocked,
			Reason:  ReasonNotEligible,
			Message: "game category not covered by active promotion",
		}
	}

	// EligibilityCheck → Reconciling: passada obrigatória, mas best-effort,
	// falha de vendor/ingestão não derruba o launch
	snap, haveSnap := o.reconcile(ctx, p.UserID)
	if !haveSnap {
		got, err := o.balances.Get(ctx, p.UserID)
		if err != nil {
			o.log.Error("balance unavailable", zap.String("userId", p.UserID), zap.Error(err))
			gwmetrics.Launches.WithLabelValues(string(StateFailed)).Inc()
			return Result{State: StateFailed, Message: "balance unavailable"}
		}
		snap = got
	}

	// Reconciling → BalanceGate
	if snap.Amount <= 0 {
		o.log.Info("launch blocked",
			zap.String("userId", p.UserID),
			zap.String("reason", ReasonInsufficientBalance),
			zap.Float64("balance", snap.Amount),
		)
		gwmetrics.Launches.WithLabelValues(string(StateBlocked)).Inc()
		return Result{
			State:   StateBlocked,
			Reason:  ReasonInsufficientBalance,
			Message: "insufficient balance, deposit to play",
		}
	}

	// BalanceGate → PayloadBuild
	transferID := NewTransferID()
	payload := provider.LaunchPayload{
		Agency:        o.agency,
		GameID:        p.GameID,
		MemberAccount: vendor.MemberAccount(o.agency, p.UserID),
		Timestamp:     time.Now().UnixMilli(),
		CreditAmount:  strconv.FormatFloat(snap.Amount, 'f', 2, 64),
		Currency:      o.currency,
		Language:      o.language,
		Platform:      int(p.Platform),
		HomeURL:       o.homeURL,
		TransferID:    transferID,
	}

	// PayloadBuild → Requesting
	url, err := o.provider.Launch(ctx, payload)
	if err != nil {
		var perr *provider.Error
		msg := "game provider unavailable"
		if errors.As(err, &perr) {
			msg = perr.Message
		}
		o.log.Warn("launch request failed",
			zap.String("userId", p.UserID),
			zap.String("transferId", transferID),
			zap.Error(err),
		)
		gwmetrics.Launches.WithLabelValues(string(StateFailed)).Inc()
		return Result{State: StateFailed, Message: msg}
	}

	// Requesting → Redirecting: marca o resync da volta antes de navegar
	if err := o.flag.Set(ctx, p.UserID); err != nil {
		o.log.Warn("resync flag set", zap.String("userId", p.UserID), zap.Error(err))
	}

	if o.publ != nil {
		_ = o.publ.PublishGameLaunched(ctx, events.GameLaunched{
			UserID:       p.UserID,
			GameID:       p.GameID,
			TransferID:   transferID,
			Platform:     int(p.Platform),
			CreditAmount: payload.CreditAmount,
			Currency:     o.currency,
			TsUnixMs:     time.Now().UnixMilli(),
		})
	}

	o.log.Info("launch redirecting",
		zap.String("userId", p.UserID),
		zap.String("gameId", p.GameID),
		zap.String("transferId", transferID),
	)
	gwmetrics.Launches.WithLabelValues(string(StateRedirecting)).Inc()
	return Result{State: StateRedirecting, RedirectURL: url}
}

// reconcile roda a passada pré-launch e devolve o snapshot, se houver.
func (o *Orchestrator) reconcile(ctx context.Context, userID string) (balance.Snapshot, bool) {
	out, err := o.syncer.Sync(ctx, userID)
	if err != nil {
		// best-effort: segue pro gate de saldo com o que tiver
		o.log.Warn("pre-launch sync", zap.String("userId", userID), zap.Error(err))
		return balance.Snapshot{}, false
	}
	if !out.BalanceOK {
		return balance.Snapshot{}, false
	}
	return out.Balance, true
}
