package dto

type PlaceBetRequest struct {
	PlayerAddress string `json:"playerAddress"`
	Number        uint64 `json:"number"`
	Amount        string `json:"amount"`    // em ether, string decimal, ex: "0.1"
	Signature     string `json:"signature"` // hex, 65 bytes, autorização do jogador
}
