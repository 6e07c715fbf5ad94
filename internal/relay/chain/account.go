package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account é a conta relay compartilhada: guarda a chave de assinatura e o
// signer EIP-155 da chain configurada. A chave nunca sai daqui; os demais
// pacotes só pedem "assina essa transação".
type Account struct {
	key    *ecdsa.PrivateKey
	addr   common.Address
	signer types.Signer
}

// NewAccount carrega a chave privada (hex, com ou sem prefixo 0x) e prepara
// o signer para o chainID informado
func NewAccount(hexKey string, chainID *big.Int) (*Account, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse relay private key: %w", err)
	}

	return &Account{
		key:    key,
		addr:   crypto.PubkeyToAddress(key.PublicKey),
		signer: types.LatestSignerForChainID(chainID),
	}, nil
}

// Address retorna o endereço da conta relay
func (a *Account) Address() common.Address { return a.addr }

// SignTx assina a transação com a chave da conta relay
func (a *Account) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, a.signer, a.key)
}
