package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Store used for development and as the test double
// for the engine. All operations copy rows on the way in and out so callers
// can never alias internal state, and ReplaceRows applies under one lock so
// no reader observes a half-replaced trip.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]Row
}

func NewMemory() *Memory {
	return &Memory{tables: map[string]map[string]Row{}}
}

// Seed inserts rows keyed by their natural key, panicking on malformed
// fixtures. Test setup only.
func (m *Memory) Seed(table string, rows ...Row) *Memory {
	for _, row := range rows {
		key, err := NaturalKey(table, row)
		if err != nil {
			panic(err)
		}
		m.mu.Lock()
		m.table(table)[key] = cloneRow(row)
		m.mu.Unlock()
	}
	return m
}

func (m *Memory) QueryRows(_ context.Context, table string, filter Row) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Row
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			out = append(out, cloneRow(row))
		}
	}
	return out, nil
}

func (m *Memory) UpdateRow(_ context.Context, table string, key string, fields Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][key]
	if !ok {
		return fmt.Errorf("table %s: no row with key %q", table, key)
	}
	for col, v := range fields {
		row[col] = v
	}
	return nil
}

func (m *Memory) ReplaceRows(_ context.Context, table string, oldKeys []string, rows []Row) error {
	// Key every new row before mutating anything, to keep the replace
	// all-or-nothing.
	keyed := make(map[string]Row, len(rows))
	for _, row := range rows {
		key, err := NaturalKey(table, row)
		if err != nil {
			return err
		}
		if _, dup := keyed[key]; dup {
			return fmt.Errorf("table %s: duplicate key %q in replace set", table, key)
		}
		keyed[key] = cloneRow(row)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(table)
	for _, key := range oldKeys {
		delete(t, key)
	}
	for key, row := range keyed {
		t[key] = row
	}
	return nil
}

func (m *Memory) GenerateKey(table string, row Row) (string, error) {
	return NaturalKey(table, row)
}

// table returns the named table, creating it on first use. Callers hold mu.
func (m *Memory) table(name string) map[string]Row {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]Row{}
		m.tables[name] = t
	}
	return t
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for col, v := range row {
		out[col] = v
	}
	return out
}
