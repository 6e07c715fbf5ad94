package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial conecta no nó Ethereum via JSON-RPC. Cada consumidor declara o seu
// próprio recorte da interface do cliente; *ethclient.Client satisfaz todos.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	return ethclient.DialContext(ctx, rawURL)
}
