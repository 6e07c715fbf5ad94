package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABI do contrato Casino, só com os métodos que o relay chama
const casinoABIJSON = `[
	{"inputs":[{"internalType":"uint256","name":"_number","type":"uint256"}],"name":"placeBet","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[],"name":"getCurrentRound","outputs":[{"components":[{"internalType":"uint256","name":"id","type":"uint256"},{"internalType":"uint256","name":"totalBets","type":"uint256"},{"internalType":"uint256","name":"totalAmount","type":"uint256"},{"internalType":"bool","name":"isActive","type":"bool"}],"internalType":"struct Casino.RoundInfo","name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getTotalPrizePool","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// RoundInfo espelha a tupla Casino.RoundInfo retornada por getCurrentRound
type RoundInfo struct {
	Id          *big.Int
	TotalBets   *big.Int
	TotalAmount *big.Int
	IsActive    bool
}

// Casino encapsula o encode/decode ABI das chamadas ao contrato do cassino
type Casino struct {
	abi  abi.ABI
	addr common.Address
}

func NewCasino(addr common.Address) (*Casino, error) {
	parsed, err := abi.JSON(strings.NewReader(casinoABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse casino abi: %w", err)
	}
	return &Casino{abi: parsed, addr: addr}, nil
}

// Address retorna o endereço do contrato
func (c *Casino) Address() common.Address { return c.addr }

// PackPlaceBet codifica a chamada placeBet(number)
func (c *Casino) PackPlaceBet(number *big.Int) ([]byte, error) {
	return c.abi.Pack("placeBet", number)
}

// PackGetCurrentRound codifica a chamada getCurrentRound()
func (c *Casino) PackGetCurrentRound() ([]byte, error) {
	return c.abi.Pack("getCurrentRound")
}

// UnpackCurrentRound decodifica o retorno de getCurrentRound()
func (c *Casino) UnpackCurrentRound(data []byte) (RoundInfo, error) {
	out, err := c.abi.Unpack("getCurrentRound", data)
	if err != nil {
		return RoundInfo{}, fmt.Errorf("unpack getCurrentRound: %w", err)
	}
	ri := *abi.ConvertType(out[0], new(RoundInfo)).(*RoundInfo)
	return ri, nil
}

// PackGetTotalPrizePool codifica a chamada getTotalPrizePool()
func (c *Casino) PackGetTotalPrizePool() ([]byte, error) {
	return c.abi.Pack("getTotalPrizePool")
}

// UnpackTotalPrizePool decodifica o retorno de getTotalPrizePool()
func (c *Casino) UnpackTotalPrizePool(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("getTotalPrizePool", data)
	if err != nil {
		return nil, fmt.Errorf("unpack getTotalPrizePool: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
