package dto

import "time"

type PlaceBetResponse struct {
	Success         bool    `json:"success"`
	TransactionHash string  `json:"transactionHash,omitempty"`
	BlockNumber     *uint64 `json:"blockNumber,omitempty"` // bloco de admissão; nulo até confirmar
	Error           string  `json:"error,omitempty"`
}

type RoundResponse struct {
	Success    bool   `json:"success"`
	RoundID    string `json:"roundId,omitempty"`
	TotalBets  string `json:"totalBets,omitempty"`
	TotalPrize string `json:"totalPrize,omitempty"` // em ether
	IsActive   bool   `json:"isActive"`
	Error      string `json:"error,omitempty"`
}

// BetDetails espelha o registro durável da aposta
type BetDetails struct {
	ID            string    `json:"id"`
	PlayerAddress string    `json:"playerAddress"`
	Number        uint64    `json:"number"`
	Amount        string    `json:"amount"`
	SubmittedAt   time.Time `json:"submittedAt"`
	BlockNumber   *uint64   `json:"blockNumber,omitempty"`
	Status        string    `json:"status"`
}

type BetStatusResponse struct {
	Success bool        `json:"success"`
	Status  string      `json:"status,omitempty"` // "CONFIRMED" | "FAILED" | "PENDING"
	Details *BetDetails `json:"details,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
