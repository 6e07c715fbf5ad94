package ledger

import (
	"context"
	"errors"
)

// ErrNotFound distingue "aposta desconhecida" de "aposta ainda PENDING"
var ErrNotFound = errors.New("bet not found")

// Store é o ledger durável de tentativas de aposta.
//
// RecordPending é um insert condicional: se o id já existe a chamada é um
// no-op de sucesso (retry idempotente), nunca duplica nem erra. MarkConfirmed
// e MarkFailed são no-ops quando o registro já está terminal; retornam se a
// transição aconteceu de fato, o que deixa eventos e métricas idempotentes.
type Store interface {
	RecordPending(ctx context.Context, rec BetRecord) error
	Get(ctx context.Context, id string) (BetRecord, error)
	MarkConfirmed(ctx context.Context, id string, blockNumber uint64) (changed bool, err error)
	MarkFailed(ctx context.Context, id string) (changed bool, err error)
	ListPending(ctx context.Context, limit int) ([]string, error)
}
