package ledger

import "time"

// Status do registro da aposta. PENDING é um estado válido de longa duração;
// só o reconciler move para um estado terminal, e nunca de volta.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// BetRecord é a unidade de durabilidade do relay, chaveada pelo hash da
// transação. A requisição original (e a assinatura do jogador) nunca é
// persistida; só estes artefatos derivados.
type BetRecord struct {
	ID            string // hash da transação
	PlayerAddress string
	Number        uint64
	Amount        string // em ether, string decimal
	SubmittedAt   time.Time
	BlockNumber   *uint64 // nulo até confirmar
	Status        Status
}
