package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

type memRecord struct {
	kind Kind
	data []byte
}

// Memory guarda o ledger em memória
// Transações são serializadas por um único mutex
type Memory struct {
	mu      sync.Mutex
	records map[Address]memRecord
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{records: make(map[Address]memRecord)}
}

func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{base: m.records, pending: make(map[Address]memRecord)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for addr, rec := range tx.pending {
		m.records[addr] = rec
	}
	m.entries = append(m.entries, tx.entries...)
	return nil
}

func (m *Memory) Entries(ctx context.Context, addr Address) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for _, e := range m.entries {
		if e.From == addr || e.To == addr {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

type memTx struct {
	base    map[Address]memRecord
	pending map[Address]memRecord
	entries []Entry
}

func (t *memTx) lookup(addr Address) (memRecord, bool) {
	if rec, ok := t.pending[addr]; ok {
		return rec, true
	}
	rec, ok := t.base[addr]
	return rec, ok
}

func (t *memTx) Get(ctx context.Context, addr Address, dst any) error {
	rec, ok := t.lookup(addr)
	if !ok {
		return errs.Wrap(errs.AccountNotFound, "get %s", addr)
	}
	if err := json.Unmarshal(rec.data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", addr, err)
	}
	return nil
}

func (t *memTx) Exists(ctx context.Context, addr Address) (bool, error) {
	_, ok := t.lookup(addr)
	return ok, nil
}

func (t *memTx) Create(ctx context.Context, addr Address, kind Kind, src any) error {
	if _, ok := t.lookup(addr); ok {
		return errs.Wrap(errs.AccountExists, "create %s", addr)
	}
	return t.Put(ctx, addr, kind, src)
}

func (t *memTx) Put(ctx context.Context, addr Address, kind Kind, src any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", addr, err)
	}
	t.pending[addr] = memRecord{kind: kind, data: b}
	return nil
}

func (t *memTx) Record(ctx context.Context, e Entry) error {
	t.entries = append(t.entries, e)
	return nil
}
