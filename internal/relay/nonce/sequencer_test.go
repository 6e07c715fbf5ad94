package nonce

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	pending uint64
	calls   int
	err     error
}

func (f *fakeSource) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.pending, nil
}

func TestAllocateSequenciaSemBuracos(t *testing.T) {
	src := &fakeSource{pending: 42}
	seq := NewSequencer(src, common.Address{})

	for want := uint64(42); want < 47; want++ {
		n, err := seq.Allocate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	// semeou uma única vez
	assert.Equal(t, 1, src.calls)
}

func TestAllocateConcorrenteDistribuiNumerosDistintos(t *testing.T) {
	src := &fakeSource{pending: 100}
	seq := NewSequencer(src, common.Address{})

	const workers = 100
	out := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Allocate(context.Background())
			assert.NoError(t, err)
			out <- n
		}()
	}
	wg.Wait()
	close(out)

	var got []uint64
	for n := range out {
		got = append(got, n)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	require.Len(t, got, workers)
	for i, n := range got {
		assert.Equal(t, uint64(100+i), n, "sequência deveria ser contígua")
	}
}

func TestAllocatePropagaErroDoNo(t *testing.T) {
	src := &fakeSource{err: errors.New("node down")}
	seq := NewSequencer(src, common.Address{})

	_, err := seq.Allocate(context.Background())
	assert.Error(t, err)

	// o nó volta e a alocação se recupera
	src.mu.Lock()
	src.err = nil
	src.pending = 7
	src.mu.Unlock()

	n, err := seq.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
}

func TestReleaseDesfazSoAUltimaAlocacao(t *testing.T) {
	src := &fakeSource{pending: 10}
	seq := NewSequencer(src, common.Address{})
	ctx := context.Background()

	n, err := seq.Allocate(ctx)
	require.NoError(t, err)
	seq.Release(n)

	// o mesmo número sai de novo, sem buraco
	again, err := seq.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, again)
}

func TestReleaseForaDeOrdemForcaReseed(t *testing.T) {
	src := &fakeSource{pending: 10}
	seq := NewSequencer(src, common.Address{})
	ctx := context.Background()

	a, err := seq.Allocate(ctx)
	require.NoError(t, err)
	_, err = seq.Allocate(ctx)
	require.NoError(t, err)

	// devolver a alocação mais antiga não pode abrir buraco: o contador
	// fica sujo e a próxima alocação volta ao nó
	seq.Release(a)

	src.mu.Lock()
	src.pending = 11 // a segunda alocação chegou ao nó
	src.mu.Unlock()

	n, err := seq.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), n)
	assert.Equal(t, 2, src.calls)
}

func TestMarkDirtyReseedaNaProximaAlocacao(t *testing.T) {
	src := &fakeSource{pending: 10}
	seq := NewSequencer(src, common.Address{})
	ctx := context.Background()

	_, err := seq.Allocate(ctx)
	require.NoError(t, err)

	seq.MarkDirty()
	src.mu.Lock()
	src.pending = 99
	src.mu.Unlock()

	n, err := seq.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), n)
}
