package ledger

import (
	"context"
	"database/sql"
)

// Postgres implementa o Store sobre a tabela bets:
//
//	id TEXT PRIMARY KEY, player_address TEXT, number BIGINT, amount TEXT,
//	submitted_at TIMESTAMPTZ, block_number BIGINT NULL, status TEXT,
//	updated_at TIMESTAMPTZ
//
// Escritas concorrentes em chaves distintas não interferem; para a mesma
// chave o ON CONFLICT garante exatamente um vencedor.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// RecordPending insere a aposta com status PENDING. Se o hash já existe a
// chamada vira no-op de sucesso sem tocar no registro original.
func (p *Postgres) RecordPending(ctx context.Context, rec BetRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, player_address, number, amount, submitted_at, status)
		VALUES ($1,$2,$3,$4,$5,'PENDING')
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.PlayerAddress, int64(rec.Number), rec.Amount, rec.SubmittedAt,
	)
	return err
}

// Get retorna o registro da aposta pelo hash da transação
func (p *Postgres) Get(ctx context.Context, id string) (BetRecord, error) {
	var rec BetRecord
	var number int64
	var block sql.NullInt64

	err := p.db.QueryRowContext(ctx, `
		SELECT id, player_address, number, amount, submitted_at, block_number, status
		FROM bets WHERE id=$1`, id,
	).Scan(&rec.ID, &rec.PlayerAddress, &number, &rec.Amount, &rec.SubmittedAt, &block, &rec.Status)
	if err == sql.ErrNoRows {
		return BetRecord{}, ErrNotFound
	}
	if err != nil {
		return BetRecord{}, err
	}

	rec.Number = uint64(number)
	if block.Valid {
		b := uint64(block.Int64)
		rec.BlockNumber = &b
	}
	return rec, nil
}

// MarkConfirmed move PENDING -> CONFIRMED gravando o bloco. O WHERE por
// status garante a monotonicidade: registro terminal não muda.
func (p *Postgres) MarkConfirmed(ctx context.Context, id string, blockNumber uint64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status='CONFIRMED', block_number=$2, updated_at=NOW()
		WHERE id=$1 AND status='PENDING'`,
		id, int64(blockNumber),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFailed move PENDING -> FAILED
func (p *Postgres) MarkFailed(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status='FAILED', updated_at=NOW()
		WHERE id=$1 AND status='PENDING'`,
		id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListPending retorna os hashes ainda PENDING, mais antigos primeiro, para a
// varredura do reconciler
func (p *Postgres) ListPending(ctx context.Context, limit int) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id FROM bets WHERE status='PENDING' ORDER BY submitted_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
