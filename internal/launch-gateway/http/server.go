package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/balance"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/dto"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/launch"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/recon"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/ws"
)

// Syncer roda a passada de reconciliação disparada pelo front
// (mount, foco de janela, pré-launch).
type Syncer interface {
	Sync(ctx context.Context, userID string) (recon.SyncOutcome, error)
}

// Launcher conduz a tentativa de launch completa.
type Launcher interface {
	Launch(ctx context.Context, p launch.Params) launch.Result
}

// BalanceSource lê o snapshot cacheado (refresh em cache miss).
type BalanceSource interface {
	Get(ctx context.Context, userID string) (balance.Snapshot, error)
}

// FlagConsumer lê e limpa o flag de resync da volta do provider.
type FlagConsumer interface {
	Consume(ctx context.Context, userID string) (bool, error)
}

// Server expõe a API HTTP do gateway de launch
type Server struct {
	log      *zap.Logger
	syncer   Syncer
	launcher Launcher
	balances BalanceSource
	flag     FlagConsumer
	hub      *ws.Hub
}

func NewServer(log *zap.Logger, s Syncer, l Launcher, b BalanceSource, f FlagConsumer, hub *ws.Hub) *Server {
	return &Server{log: log, syncer: s, launcher: l, balances: b, flag: f, hub: hub}
}

// Router retorna o mux HTTP com as rotas do gateway
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", s.sync)        // POST
	mux.HandleFunc("/launch", s.launch)    // POST
	mux.HandleFunc("/balance", s.balance)  // GET ?userId=...
	mux.HandleFunc("/ws/balance", s.wsSub) // WebSocket
	return mux
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	// 1) Consome o flag de "ressincronizar na volta", se houver
	if forced, err := s.flag.Consume(r.Context(), req.UserID); err == nil && forced {
		s.log.Info("return resync flag honored", zap.String("userId", req.UserID))
	}

	// 2) Roda a passada; falhas de reconciliação não viram erro pro usuário
	out, err := s.syncer.Sync(r.Context(), req.UserID)
	resp := dto.SyncResponse{
		UserID:    req.UserID,
		Fetched:   out.Fetched,
		New:       out.New,
		Committed: out.Committed,
		Failed:    out.Failed,
	}
	switch {
	case errors.Is(err, recon.ErrSyncInProgress):
		resp.Skipped = true
		resp.Message = "sync already running"
	case errors.Is(err, recon.ErrVendorFetch):
		resp.Skipped = true
		resp.Message = "vendor unavailable, pass skipped"
	case err != nil:
		// cancelamento do request; nada a reportar
		resp.Skipped = true
	default:
		if out.BalanceOK {
			amount := out.Balance.Amount
			resp.Balance = &amount
			// 3) Push do saldo recarregado para as abas inscritas
			if s.hub != nil {
				s.hub.Broadcast(ws.BalanceUpdate{UserID: req.UserID, Payload: out.Balance})
			}
		}
	}

	writeJSON(w, resp)
}

func (s *Server) launch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.GameID == "" || req.GameCategory == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	platform := launch.PlatformClass(req.Platform)
	if platform != launch.PlatformWeb && platform != launch.PlatformMobile {
		http.Error(w, "platform must be 1 (web) or 2 (mobile)", http.StatusBadRequest)
		return
	}

	res := s.launcher.Launch(r.Context(), launch.Params{
		UserID:             req.UserID,
		GameID:             req.GameID,
		GameCategory:       req.GameCategory,
		EligibleCategories: req.EligibleCategories,
		Platform:           platform,
	})

	resp := dto.LaunchResponse{
		Status:      string(res.State),
		RedirectURL: res.RedirectURL,
		Reason:      res.Reason,
		Message:     res.Message,
	}
	if res.State == launch.StateFailed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	snap, err := s.balances.Get(r.Context(), userID)
	if err != nil {
		http.Error(w, "balance unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, dto.BalanceResponse{
		UserID:    snap.UserID,
		Amount:    snap.Amount,
		Currency:  snap.Currency,
		FetchedAt: snap.FetchedAt,
	})
}

func (s *Server) wsSub(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWS(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
