package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

// Postgres implementa o ledger em banco
// Cada InTx é uma transação SQL; leituras usam SELECT ... FOR UPDATE
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) Entries(ctx context.Context, addr Address) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, op, asset, from_addr, to_addr, amount, round_id, created_at
		   FROM ledger_entries
		  WHERE from_addr=$1 OR to_addr=$1
		  ORDER BY seq`, string(addr))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			id       string
			from, to sql.NullString
			amount   string
			roundID  sql.NullInt64
		)
		if err := rows.Scan(&id, &e.Op, &e.Asset, &from, &to, &amount, &roundID, &e.At); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse entry id: %w", err)
		}
		e.From, e.To = Address(from.String), Address(to.String)
		if e.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, fmt.Errorf("parse entry amount: %w", err)
		}
		if roundID.Valid {
			e = e.ForRound(uint64(roundID.Int64))
		}
		e.At = e.At.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) Get(ctx context.Context, addr Address, dst any) error {
	var data []byte
	err := t.tx.QueryRowContext(ctx, `SELECT data FROM accounts WHERE address=$1 FOR UPDATE`, string(addr)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.AccountNotFound, "get %s", addr)
	} else if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", addr, err)
	}
	return nil
}

func (t *pgTx) Exists(ctx context.Context, addr Address) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE address=$1`, string(addr)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (t *pgTx) Create(ctx context.Context, addr Address, kind Kind, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", addr, err)
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO accounts(address, kind, data, version) VALUES($1,$2,$3,1)
		 ON CONFLICT (address) DO NOTHING`, string(addr), string(kind), data)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Wrap(errs.AccountExists, "create %s", addr)
	}
	return nil
}

func (t *pgTx) Put(ctx context.Context, addr Address, kind Kind, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", addr, err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO accounts(address, kind, data, version) VALUES($1,$2,$3,1)
		 ON CONFLICT (address) DO UPDATE
		    SET data = EXCLUDED.data, version = accounts.version + 1, updated_at = now()`,
		string(addr), string(kind), data)
	return err
}

func (t *pgTx) Record(ctx context.Context, e Entry) error {
	var roundID sql.NullInt64
	if e.RoundID != nil {
		roundID = sql.NullInt64{Int64: int64(*e.RoundID), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ledger_entries(id, op, asset, from_addr, to_addr, amount, round_id, created_at)
		 VALUES($1,$2,$3,NULLIF($4,''),NULLIF($5,''),$6,$7,$8)`,
		e.ID.String(), e.Op, e.Asset, string(e.From), string(e.To), strconv.FormatUint(e.Amount, 10), roundID, e.At)
	return err
}
