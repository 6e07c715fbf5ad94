package sig

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature cobre qualquer falha de verificação: assinatura
// malformada, recovery impossível ou endereço divergente. O chamador não
// precisa (e não deve) distinguir os casos.
var ErrInvalidSignature = errors.New("invalid signature")

const signatureLen = 65

// prefixo EIP-191 aplicado por web3.eth.accounts.sign sobre o hash de 32 bytes
var personalPrefix = []byte("\x19Ethereum Signed Message:\n32")

// WagerDigest calcula o hash canônico da autorização da aposta:
// keccak256(uint256(number) || uint256(amountWei)), o mesmo encoding do
// soliditySha3 usado pelo cliente na assinatura.
func WagerDigest(number uint64, amountWei *big.Int) []byte {
	var buf [64]byte
	new(big.Int).SetUint64(number).FillBytes(buf[:32])
	amountWei.FillBytes(buf[32:])
	return crypto.Keccak256(buf[:])
}

// Verify confirma que signature foi produzida pela chave de claimed sobre o
// digest canônico da aposta. Falha fechado: qualquer entrada malformada
// retorna ErrInvalidSignature em vez de propagar o erro de recovery.
func Verify(claimed common.Address, number uint64, amountWei *big.Int, signature []byte) error {
	// valores acima de uint256 não cabem no encoding do digest
	if amountWei == nil || amountWei.Sign() < 0 || amountWei.BitLen() > 256 || len(signature) != signatureLen {
		return ErrInvalidSignature
	}

	// carteiras assinam com V em 27/28; crypto.SigToPub espera 0/1
	sig := make([]byte, signatureLen)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return ErrInvalidSignature
	}

	msg := crypto.Keccak256(personalPrefix, WagerDigest(number, amountWei))

	pub, err := crypto.SigToPub(msg, sig)
	if err != nil {
		return ErrInvalidSignature
	}

	// comparação de Address é byte a byte, o que equivale a ignorar
	// maiúsculas/minúsculas do hex de entrada
	if crypto.PubkeyToAddress(*pub) != claimed {
		return ErrInvalidSignature
	}
	return nil
}
