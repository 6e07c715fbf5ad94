package submitter

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/chain"
	"github.com/casinolabs/casino-bet-relay/internal/relay/nonce"
)

// Taxonomia de falha da submissão (ver propagação no handler HTTP):
//   - ErrEstimationFailed: consulta de gas/fee inacessível depois dos retries
//   - ErrSigningFailed: fatal para a tentativa; o sequence number é devolvido
//   - ErrSubmissionRejected: o nó recusou a transação; se a causa for nonce
//     defasado o sequencer é marcado para reseed
var (
	ErrEstimationFailed   = errors.New("gas estimation failed")
	ErrNetworkUnavailable = errors.New("node unavailable")
	ErrSigningFailed      = errors.New("transaction signing failed")
	ErrSubmissionRejected = errors.New("transaction rejected by node")
)

// ChainClient é o recorte do nó usado na submissão
type ChainClient interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// CallSpec descreve a chamada de contrato a submeter
type CallSpec struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Admission é o recibo de aceitação na pool do nó: não é confirmação
type Admission struct {
	Hash  common.Hash
	Nonce uint64
}

// Submitter monta, assina e transmite transações da conta relay.
type Submitter struct {
	log     *zap.Logger
	chain   ChainClient
	account *chain.Account
	seq     *nonce.Sequencer
	policy  Policy
}

func New(log *zap.Logger, c ChainClient, account *chain.Account, seq *nonce.Sequencer, policy Policy) *Submitter {
	return &Submitter{log: log, chain: c, account: account, seq: seq, policy: policy}
}

// Submit estima gas, aloca o sequence number, assina e envia. A alocação do
// nonce acontece depois da estimativa pra não segurar o número (nem o lock)
// durante I/O que pode falhar à toa.
func (s *Submitter) Submit(ctx context.Context, call CallSpec) (Admission, error) {
	gasPrice, gasLimit, err := s.estimate(ctx, call)
	if err != nil {
		return Admission{}, fmt.Errorf("%w: %v", ErrEstimationFailed, err)
	}

	n, err := s.seq.Allocate(ctx)
	if err != nil {
		return Admission{}, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}

	tx := types.NewTransaction(n, call.To, call.Value, gasLimit, gasPrice, call.Data)

	signed, err := s.account.SignTx(tx)
	if err != nil {
		// a tentativa morre aqui; devolve o número pra não abrir buraco
		s.seq.Release(n)
		return Admission{}, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	// reenviar a mesma transação assinada é idempotente (mesmo hash), então
	// erros de transporte podem ser repetidos sem risco
	err = s.policy.Do(ctx, isTransportError, func(ctx context.Context) error {
		return s.chain.SendTransaction(ctx, signed)
	})
	if err != nil {
		// "already known": um envio anterior chegou e a resposta se perdeu.
		// O hash é derivado localmente da transação assinada, então isto é
		// uma admissão, não uma rejeição.
		if isAlreadyKnown(err) {
			hash := signed.Hash()
			s.log.Info("transaction already in node pool, treating as admitted",
				zap.String("txHash", hash.Hex()), zap.Uint64("nonce", n))
			return Admission{Hash: hash, Nonce: n}, nil
		}
		if isNonceError(err) {
			s.log.Warn("sequence number rejected, marking sequencer for reseed",
				zap.Uint64("nonce", n), zap.Error(err))
			s.seq.MarkDirty()
		}
		return Admission{}, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	hash := signed.Hash()
	s.log.Info("transaction admitted",
		zap.String("txHash", hash.Hex()),
		zap.Uint64("nonce", n),
		zap.Uint64("gasLimit", gasLimit),
		zap.String("gasPrice", gasPrice.String()),
	)
	return Admission{Hash: hash, Nonce: n}, nil
}

// estimate consulta gasPrice e gasLimit sob a política de retry. Essas
// leituras não têm estado compartilhado e rodam em paralelo entre requests.
func (s *Submitter) estimate(ctx context.Context, call CallSpec) (gasPrice *big.Int, gasLimit uint64, err error) {
	err = s.policy.Do(ctx, func(error) bool { return true }, func(ctx context.Context) error {
		var e error
		gasPrice, e = s.chain.SuggestGasPrice(ctx)
		if e != nil {
			return e
		}
		gasLimit, e = s.chain.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.account.Address(),
			To:    &call.To,
			Value: call.Value,
			Data:  call.Data,
		})
		return e
	})
	if err != nil {
		return nil, 0, err
	}
	return gasPrice, gasLimit, nil
}
