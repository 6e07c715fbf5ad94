package chain

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrBadAmount = errors.New("invalid amount")

// WeiFromEther converte um valor em ether (string decimal, ex: "0.1") para
// wei. Valores não positivos, com precisão abaixo de 1 wei ou acima do
// uint256 do contrato são rejeitados.
func WeiFromEther(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, ErrBadAmount
	}
	if d.Sign() <= 0 {
		return nil, ErrBadAmount
	}

	wei := d.Shift(18)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, ErrBadAmount // fração de wei
	}

	b := wei.BigInt()
	if b.BitLen() > 256 {
		return nil, ErrBadAmount
	}
	return b, nil
}

// EtherFromWei converte wei para a representação decimal em ether
func EtherFromWei(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).String()
}
