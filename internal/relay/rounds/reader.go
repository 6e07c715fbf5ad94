package rounds

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/redis/go-redis/v9"

	"github.com/casinolabs/casino-bet-relay/internal/relay/chain"
)

const cacheKey = "casino:round:current"

// Snapshot é a visão pontual da rodada corrente, já nas unidades da API
// (prêmio em ether, ids como string decimal)
type Snapshot struct {
	RoundID    string `json:"roundId"`
	TotalBets  string `json:"totalBets"`
	TotalPrize string `json:"totalPrize"` // em ether
	IsActive   bool   `json:"isActive"`
}

// CallClient é o recorte read-only do nó usado pelo reader
type CallClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader faz leituras puras do estado do contrato (rodada corrente e prêmio
// acumulado). Sem hazard de concorrência: nada aqui muta estado. O cache
// Redis é opcional e só ameniza rajadas de consulta.
type Reader struct {
	chain  CallClient
	casino *chain.Casino
	rdb    *redis.Client // pode ser nil
	ttl    time.Duration
}

func NewReader(c CallClient, casino *chain.Casino, rdb *redis.Client, ttl time.Duration) *Reader {
	return &Reader{chain: c, casino: casino, rdb: rdb, ttl: ttl}
}

// CurrentRound retorna a rodada corrente com o prêmio total, preferindo o
// cache quando disponível
func (r *Reader) CurrentRound(ctx context.Context) (Snapshot, error) {
	if r.rdb != nil {
		if b, err := r.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var snap Snapshot
			if json.Unmarshal(b, &snap) == nil {
				return snap, nil
			}
		}
	}

	info, err := r.fetchRound(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	prize, err := r.TotalPrizePool(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		RoundID:    info.Id.String(),
		TotalBets:  info.TotalBets.String(),
		TotalPrize: chain.EtherFromWei(prize),
		IsActive:   info.IsActive,
	}

	if r.rdb != nil {
		if b, err := json.Marshal(snap); err == nil {
			_ = r.rdb.Set(ctx, cacheKey, b, r.ttl).Err()
		}
	}
	return snap, nil
}

// TotalPrizePool retorna o prêmio acumulado em wei
func (r *Reader) TotalPrizePool(ctx context.Context) (*big.Int, error) {
	data, err := r.casino.PackGetTotalPrizePool()
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("getTotalPrizePool: %w", err)
	}
	return r.casino.UnpackTotalPrizePool(out)
}

func (r *Reader) fetchRound(ctx context.Context) (chain.RoundInfo, error) {
	data, err := r.casino.PackGetCurrentRound()
	if err != nil {
		return chain.RoundInfo{}, err
	}
	out, err := r.call(ctx, data)
	if err != nil {
		return chain.RoundInfo{}, fmt.Errorf("getCurrentRound: %w", err)
	}
	return r.casino.UnpackCurrentRound(out)
}

func (r *Reader) call(ctx context.Context, data []byte) ([]byte, error) {
	to := r.casino.Address()
	return r.chain.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}
