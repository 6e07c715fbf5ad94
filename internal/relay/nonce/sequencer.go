package nonce

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Source é a consulta de nonce pendente no nó (PendingNonceAt do ethclient)
type Source interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Sequencer distribui sequence numbers da conta relay sob concorrência.
// É o único recurso serializado do coordenador: o contador em memória é
// protegido por mutex e o nó é a fonte de verdade em caso de dúvida.
//
// Garantias: números distintos, crescentes e sem buracos enquanto as
// alocações forem bem sucedidas. Uma alocação devolvida fora de ordem marca
// o sequencer como sujo e força reseed na próxima alocação, em vez de deixar
// um buraco que travaria as transações seguintes.
type Sequencer struct {
	src     Source
	account common.Address

	mu     sync.Mutex
	next   uint64
	seeded bool
	dirty  bool
}

func NewSequencer(src Source, account common.Address) *Sequencer {
	return &Sequencer{src: src, account: account}
}

// Allocate entrega o próximo sequence number. Reseeda do nó na primeira
// chamada e sempre que o contador estiver marcado como sujo. O lock cobre só
// a alocação; a submissão acontece fora dele.
func (s *Sequencer) Allocate(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded || s.dirty {
		if err := s.reseedLocked(ctx); err != nil {
			return 0, err
		}
	}

	n := s.next
	s.next++
	return n, nil
}

// Release devolve um número alocado cuja submissão falhou antes de chegar ao
// nó (ex: falha de assinatura). Só desfaz se for a alocação mais recente;
// caso contrário marca o contador como sujo para reseed.
func (s *Sequencer) Release(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded && n+1 == s.next {
		s.next = n
		return
	}
	s.dirty = true
}

// MarkDirty força reseed na próxima alocação. Usado quando o nó rejeita uma
// transação por nonce defasado.
func (s *Sequencer) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Reseed ressincroniza o contador com o nonce pendente do nó
func (s *Sequencer) Reseed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reseedLocked(ctx)
}

func (s *Sequencer) reseedLocked(ctx context.Context) error {
	n, err := s.src.PendingNonceAt(ctx, s.account)
	if err != nil {
		return fmt.Errorf("seed nonce from node: %w", err)
	}
	s.next = n
	s.seeded = true
	s.dirty = false
	return nil
}
