package events

import "time"

// Evento emitido pelo bet-reconciler-worker após observar o recibo on-chain.
type BetConfirmed struct {
	TxHash      string    `json:"txHash"`
	Status      string    `json:"status"` // "CONFIRMED" | "FAILED"
	BlockNumber *uint64   `json:"blockNumber,omitempty"`
	Ts          time.Time `json:"ts"`
}
