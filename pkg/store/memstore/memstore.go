// Package memstore implements the store.Driver interface entirely in
// memory. It backs tests and examples, and doubles as the storage
// engine of the fake RPC server used by the remote driver tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
)

// Store holds documents per table and maintains a secondary index over
// every top-level field, keyed by the field's encoded value, so
// QueryByField is a pair of map lookups rather than a table scan.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
	// table -> field -> encoded value -> set of record keys
	index map[string]map[string]map[string]map[string]bool
}

var _ store.Driver = (*Store)(nil)

func New() *Store {
	return &Store{
		tables: make(map[string]map[string][]byte),
		index:  make(map[string]map[string]map[string]map[string]bool),
	}
}

func (s *Store) Insert(ctx context.Context, id models.RecordID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := topLevelFields(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	if _, ok := s.tables[id.Table][key]; ok {
		return fmt.Errorf("%w: %s", store.ErrIDInUse, key)
	}

	if s.tables[id.Table] == nil {
		s.tables[id.Table] = make(map[string][]byte)
	}
	s.tables[id.Table][key] = data
	s.indexFields(id.Table, key, fields)

	return nil
}

func (s *Store) Update(ctx context.Context, id models.RecordID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := topLevelFields(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	prev, ok := s.tables[id.Table][key]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}

	s.unindexDocument(id.Table, key, prev)
	s.tables[id.Table][key] = data
	s.indexFields(id.Table, key, fields)

	return nil
}

func (s *Store) Delete(ctx context.Context, id models.RecordID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	prev, ok := s.tables[id.Table][key]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}

	s.unindexDocument(id.Table, key, prev)
	delete(s.tables[id.Table], key)

	return nil
}

func (s *Store) FindByID(ctx context.Context, id models.RecordID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.tables[id.Table][id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id.String())
	}

	return data, nil
}

func (s *Store) QueryByField(ctx context.Context, table, field string, value []byte) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for key := range s.index[table][field][string(value)] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	docs := make([][]byte, 0, len(keys))
	for _, key := range keys {
		docs = append(docs, s.tables[table][key])
	}

	return docs, nil
}

func (s *Store) Close() error {
	return nil
}

// topLevelFields splits a document into its top-level fields, each kept
// as raw encoded bytes. Matching on encoded bytes is exact as long as
// writer and querier share a codec, which the DB handle guarantees.
func topLevelFields(data []byte) (map[string]cbor.RawMessage, error) {
	var fields map[string]cbor.RawMessage
	if err := cbor.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("document is not a map: %w", err)
	}
	return fields, nil
}

func (s *Store) indexFields(table, key string, fields map[string]cbor.RawMessage) {
	if s.index[table] == nil {
		s.index[table] = make(map[string]map[string]map[string]bool)
	}
	for field, raw := range fields {
		if s.index[table][field] == nil {
			s.index[table][field] = make(map[string]map[string]bool)
		}
		if s.index[table][field][string(raw)] == nil {
			s.index[table][field][string(raw)] = make(map[string]bool)
		}
		s.index[table][field][string(raw)][key] = true
	}
}

func (s *Store) unindexDocument(table, key string, data []byte) {
	fields, err := topLevelFields(data)
	if err != nil {
		return
	}
	for field, raw := range fields {
		delete(s.index[table][field][string(raw)], key)
	}
}
