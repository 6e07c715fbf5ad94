package submitter

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/ssgreg/repeat"
)

// Policy implementa retry limitado com backoff full-jitter para chamadas de
// rede do submitter. A classificação do erro (retryable ou não) fica com o
// chamador, via temporary.
type Policy struct {
	MaxTries  int
	BaseDelay time.Duration
}

// DefaultPolicy cobre as consultas de gas e a submissão: poucas tentativas,
// backoff curto. O caller HTTP está esperando.
func DefaultPolicy() Policy {
	return Policy{MaxTries: 3, BaseDelay: 200 * time.Millisecond}
}

// Do executa op repetindo enquanto temporary(err) for verdadeiro, até
// MaxTries. Retorna o último erro quando as tentativas se esgotam.
func (p Policy) Do(ctx context.Context, temporary func(error) bool, op func(ctx context.Context) error) error {
	return repeat.Repeat(
		repeat.Fn(func() error {
			err := op(ctx)
			if err != nil && ctx.Err() == nil && temporary(err) {
				return repeat.HintTemporary(err)
			}
			return err
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(p.MaxTries),
		repeat.WithDelay(repeat.FullJitterBackoff(p.BaseDelay).Set()),
	)
}

// isTransportError identifica falhas de transporte/timeout que valem retry,
// em oposição a rejeições do nó, que são definitivas para a tentativa.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "eof", "timeout", "temporarily unavailable", "too many requests"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isAlreadyKnown detecta o nó respondendo que já tem exatamente esta
// transação na pool. Acontece quando o primeiro envio chegou mas a resposta
// se perdeu e o retry reenviou o mesmo payload assinado.
func isAlreadyKnown(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}

// isNonceError detecta rejeições por sequence number defasado ou repetido
func isNonceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce") || strings.Contains(msg, "replacement transaction")
}
