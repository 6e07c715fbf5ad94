package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/chain"
	"github.com/casinolabs/casino-bet-relay/internal/relay/dto"
	"github.com/casinolabs/casino-bet-relay/internal/relay/ledger"
	"github.com/casinolabs/casino-bet-relay/internal/relay/reconciler"
	"github.com/casinolabs/casino-bet-relay/internal/relay/rounds"
	"github.com/casinolabs/casino-bet-relay/internal/relay/sig"
	"github.com/casinolabs/casino-bet-relay/internal/relay/submitter"
	"github.com/casinolabs/casino-bet-relay/pkg/contracts/events"
)

// BetPlacedPublisher publica o evento de admissão; pode ser nil em testes
type BetPlacedPublisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
}

// Server expõe a API pública do relay: um conjunto fechado de operações
// tipadas (placeBet, rodada corrente, status da aposta), cada uma com sua
// própria rota e shape de request/response.
type Server struct {
	log    *zap.Logger
	casino *chain.Casino
	sub    *submitter.Submitter
	store  ledger.Store
	rounds *rounds.Reader
	rec    *reconciler.Reconciler
	publ   BetPlacedPublisher

	// métricas (counter++)
	OnBetAdmitted func()
	OnBetRejected func(reason string)
}

func NewServer(
	log *zap.Logger,
	casino *chain.Casino,
	sub *submitter.Submitter,
	store ledger.Store,
	rr *rounds.Reader,
	rec *reconciler.Reconciler,
	publ BetPlacedPublisher,
) *Server {
	return &Server{log: log, casino: casino, sub: sub, store: store, rounds: rr, rec: rec, publ: publ}
}

// Router retorna o roteador HTTP com os endpoints do relay
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets", s.placeBet)
	r.Get("/v1/bets/{txHash}", s.getBetStatus)
	r.Get("/v1/rounds/current", s.getCurrentRound)
	return r
}

// placeBet verifica a autorização assinada do jogador, submete a transação
// pela conta relay e grava o registro PENDING. A resposta é recibo de
// admissão na pool; a confirmação chega depois, via reconciliação.
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if !common.IsHexAddress(req.PlayerAddress) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid playerAddress"})
		return
	}

	amountWei, err := chain.WeiFromEther(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid amount"})
		return
	}

	player := common.HexToAddress(req.PlayerAddress)

	// verificação falha fechado: assinatura ilegível conta como inválida
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil || sig.Verify(player, req.Number, amountWei, sigBytes) != nil {
		s.reject("invalid_signature")
		s.log.Info("bet rejected: invalid signature", zap.String("player", player.Hex()))
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "invalid signature"})
		return
	}

	data, err := s.casino.PackPlaceBet(new(big.Int).SetUint64(req.Number))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	// a partir daqui a requisição não pode mais abortar a submissão: um
	// timeout do caller não pode desfazer um nonce já comprometido
	ctx := context.WithoutCancel(r.Context())

	adm, err := s.sub.Submit(ctx, submitter.CallSpec{
		To:    s.casino.Address(),
		Data:  data,
		Value: amountWei,
	})
	if err != nil {
		status := http.StatusInternalServerError
		reason := "submit"
		switch {
		case errors.Is(err, submitter.ErrEstimationFailed), errors.Is(err, submitter.ErrNetworkUnavailable):
			status = http.StatusServiceUnavailable
			reason = "network"
		case errors.Is(err, submitter.ErrSubmissionRejected):
			status = http.StatusBadGateway
			reason = "rejected"
		}
		s.reject(reason)
		s.log.Error("bet submission failed", zap.String("player", player.Hex()), zap.Error(err))
		writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
		return
	}

	txHash := adm.Hash.Hex()
	rec := ledger.BetRecord{
		ID:            txHash,
		PlayerAddress: player.Hex(),
		Number:        req.Number,
		Amount:        req.Amount,
		SubmittedAt:   time.Now().UTC(),
		Status:        ledger.StatusPending,
	}
	if err := s.store.RecordPending(ctx, rec); err != nil {
		// a transação já está na rede; sem registro o reconciler nunca vai
		// resolvê-la, então isso é erro de verdade, não warning
		s.log.Error("bet admitted but not recorded", zap.String("txHash", txHash), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "bet submitted but not recorded: " + txHash,
		})
		return
	}

	if s.publ != nil {
		_ = s.publ.PublishBetPlaced(ctx, events.BetPlaced{
			TxHash:        txHash,
			PlayerAddress: player.Hex(),
			Number:        req.Number,
			Amount:        req.Amount,
			Nonce:         adm.Nonce,
		})
	}

	if s.OnBetAdmitted != nil {
		s.OnBetAdmitted()
	}
	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{
		Success:         true,
		TransactionHash: txHash,
	})
}

// getBetStatus consulta o registro durável; se ainda PENDING tenta uma
// reconciliação no ato (polling do caller também é gatilho de reconcile).
func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "txHash")
	if !isTxHash(raw) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid txHash"})
		return
	}
	id := common.HexToHash(raw).Hex()

	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if rec.Status == ledger.StatusPending && s.rec != nil {
		// erro de reconciliação nunca chega ao caller; o registro segue
		// PENDING e a próxima varredura resolve
		if st, rerr := s.rec.Reconcile(r.Context(), id); rerr != nil {
			s.log.Warn("reconcile on poll failed", zap.String("txHash", id), zap.Error(rerr))
		} else if st != ledger.StatusPending {
			if fresh, gerr := s.store.Get(r.Context(), id); gerr == nil {
				rec = fresh
			}
		}
	}

	writeJSON(w, http.StatusOK, dto.BetStatusResponse{
		Success: true,
		Status:  string(rec.Status),
		Details: &dto.BetDetails{
			ID:            rec.ID,
			PlayerAddress: rec.PlayerAddress,
			Number:        rec.Number,
			Amount:        rec.Amount,
			SubmittedAt:   rec.SubmittedAt,
			BlockNumber:   rec.BlockNumber,
			Status:        string(rec.Status),
		},
	})
}

// getCurrentRound devolve a visão pontual da rodada e do prêmio acumulado
func (s *Server) getCurrentRound(w http.ResponseWriter, r *http.Request) {
	snap, err := s.rounds.CurrentRound(r.Context())
	if err != nil {
		s.log.Error("current round query failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dto.RoundResponse{
		Success:    true,
		RoundID:    snap.RoundID,
		TotalBets:  snap.TotalBets,
		TotalPrize: snap.TotalPrize,
		IsActive:   snap.IsActive,
	})
}

func (s *Server) reject(reason string) {
	if s.OnBetRejected != nil {
		s.OnBetRejected(reason)
	}
}

// isTxHash valida o formato 0x + 64 hex
func isTxHash(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
