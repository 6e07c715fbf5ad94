package events

// Evento publicado no tópico "bet_placed" quando a transação da aposta é
// aceita na pool do nó (admissão, não confirmação).
type BetPlaced struct {
	TxHash        string `json:"tx_hash"`
	PlayerAddress string `json:"player_address"`
	Number        uint64 `json:"number"`
	Amount        string `json:"amount"` // em ether, string decimal
	Nonce         uint64 `json:"nonce"`  // sequence number usado pela conta relay
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
