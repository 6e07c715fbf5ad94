package ledger

import (
	"context"
	"sort"
	"sync"
)

// Memory é um Store em memória com as mesmas garantias de idempotência e
// monotonicidade do Postgres. Usado nos testes e em ambiente local sem banco.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]BetRecord
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]BetRecord)}
}

func (m *Memory) RecordPending(_ context.Context, rec BetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recs[rec.ID]; ok {
		return nil // já existe: no-op
	}
	rec.Status = StatusPending
	rec.BlockNumber = nil
	m.recs[rec.ID] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (BetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.recs[id]
	if !ok {
		return BetRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) MarkConfirmed(_ context.Context, id string, blockNumber uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[id]
	if !ok {
		return false, nil // mesmo contrato do Postgres: update sem linha
	}
	if rec.Status != StatusPending {
		return false, nil
	}
	rec.Status = StatusConfirmed
	rec.BlockNumber = &blockNumber
	m.recs[id] = rec
	return true, nil
}

func (m *Memory) MarkFailed(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[id]
	if !ok {
		return false, nil
	}
	if rec.Status != StatusPending {
		return false, nil
	}
	rec.Status = StatusFailed
	m.recs[id] = rec
	return true, nil
}

func (m *Memory) ListPending(_ context.Context, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type pending struct {
		id string
		at int64
	}
	var ps []pending
	for id, rec := range m.recs {
		if rec.Status == StatusPending {
			ps = append(ps, pending{id: id, at: rec.SubmittedAt.UnixNano()})
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].at < ps[j].at })

	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, p.id)
	}
	return ids, nil
}
