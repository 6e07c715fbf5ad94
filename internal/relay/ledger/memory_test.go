package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingBet(id string) BetRecord {
	return BetRecord{
		ID:            id,
		PlayerAddress: "0x1111111111111111111111111111111111111111",
		Number:        7,
		Amount:        "0.1",
		SubmittedAt:   time.Now().UTC(),
		Status:        StatusPending,
	}
}

func TestRecordPendingIdempotente(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	first := pendingBet("0xabc")
	require.NoError(t, store.RecordPending(ctx, first))

	// regravar o mesmo hash não toca o registro original
	dup := first
	dup.Number = 99
	dup.Amount = "5"
	require.NoError(t, store.RecordPending(ctx, dup))

	got, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Number)
	assert.Equal(t, "0.1", got.Amount)
	assert.Equal(t, StatusPending, got.Status)
}

func TestGetInexistente(t *testing.T) {
	store := NewMemory()
	_, err := store.Get(context.Background(), "0xdead")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkConfirmedTransicionaUmaVez(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.RecordPending(ctx, pendingBet("0xabc")))

	changed, err := store.MarkConfirmed(ctx, "0xabc", 1234)
	require.NoError(t, err)
	assert.True(t, changed)

	// segunda aplicação é no-op
	changed, err = store.MarkConfirmed(ctx, "0xabc", 9999)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	require.NotNil(t, got.BlockNumber)
	assert.Equal(t, uint64(1234), *got.BlockNumber)
}

func TestStatusTerminalNaoRegride(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.RecordPending(ctx, pendingBet("0xabc")))

	changed, err := store.MarkFailed(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, changed)

	// FAILED é terminal: não vira CONFIRMED depois
	changed, err = store.MarkConfirmed(ctx, "0xabc", 10)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Nil(t, got.BlockNumber)
}

func TestMarkSemRegistroNaoTransiciona(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	changed, err := store.MarkConfirmed(ctx, "0xdead", 1)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = store.MarkFailed(ctx, "0xdead")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMarkConfirmedConcorrenteTemUmVencedor(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.RecordPending(ctx, pendingBet("0xabc")))

	const racers = 20
	wins := make(chan bool, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := store.MarkConfirmed(ctx, "0xabc", 55)
			assert.NoError(t, err)
			wins <- changed
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for w := range wins {
		if w {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestListPendingOrdenadoELimitado(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		rec := pendingBet(fmt.Sprintf("0x%02d", i))
		rec.SubmittedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.RecordPending(ctx, rec))
	}
	// os terminais ficam de fora
	_, err := store.MarkConfirmed(ctx, "0x01", 1)
	require.NoError(t, err)

	ids, err := store.ListPending(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x00", "0x02", "0x03"}, ids)

	all, err := store.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
