package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

type document = map[string]any

// Store is an in-process document store. Every write holds one lock, so unique
// index checks and the write itself are atomic.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]document
	indexes     map[string][]domain.Index
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]document),
		indexes:     make(map[string][]domain.Index),
	}
}

func (s *Store) FindOne(ctx context.Context, collection string, filter interfaces.Filter, out any) (bool, error) {
	eq, ranges, err := filter.Split()
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.sortedIDs(collection) {
		doc := s.collections[collection][id]
		if matches(doc, eq, ranges) {
			return true, decode(doc, out)
		}
	}
	return false, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter interfaces.Filter, out any) error {
	eq, ranges, err := filter.Split()
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]document, 0)
	for _, id := range s.sortedIDs(collection) {
		doc := s.collections[collection][id]
		if matches(doc, eq, ranges) {
			found = append(found, doc)
		}
	}
	return decode(found, out)
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc any) error {
	m, id, err := interfaces.EncodeDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(collection)
	if _, exists := docs[id]; exists {
		return fmt.Errorf("%w: %s id %s", domain.ErrDuplicateKey, collection, id)
	}
	if err := s.checkUnique(collection, id, m); err != nil {
		return err
	}
	docs[id] = m
	return nil
}

func (s *Store) ReplaceOrUpsert(ctx context.Context, collection string, filter interfaces.Filter, doc any) error {
	m, id, err := interfaces.EncodeDocument(doc)
	if err != nil {
		return err
	}
	eq, ranges, err := filter.Split()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(collection)
	for _, existingID := range s.sortedIDs(collection) {
		if !matches(docs[existingID], eq, ranges) {
			continue
		}
		m["id"] = existingID
		if err := s.checkUnique(collection, existingID, m); err != nil {
			return err
		}
		docs[existingID] = m
		return nil
	}

	if _, exists := docs[id]; exists {
		return fmt.Errorf("%w: %s id %s", domain.ErrDuplicateKey, collection, id)
	}
	if err := s.checkUnique(collection, id, m); err != nil {
		return err
	}
	docs[id] = m
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, collection string, filter interfaces.Filter, fields map[string]any) (int64, error) {
	set, err := interfaces.NormalizeFields(fields)
	if err != nil {
		return 0, err
	}
	eq, ranges, err := filter.Split()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(collection)
	updated := make(map[string]document)
	for _, id := range s.sortedIDs(collection) {
		if !matches(docs[id], eq, ranges) {
			continue
		}
		next := make(document, len(docs[id])+len(set))
		for k, v := range docs[id] {
			next[k] = v
		}
		for k, v := range set {
			next[k] = v
		}
		if err := s.checkUnique(collection, id, next); err != nil {
			return 0, err
		}
		updated[id] = next
	}

	for id, doc := range updated {
		docs[id] = doc
	}
	return int64(len(updated)), nil
}

func (s *Store) Delete(ctx context.Context, collection string, filter interfaces.Filter) (int64, error) {
	eq, ranges, err := filter.Split()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	docs := s.collection(collection)
	for _, id := range s.sortedIDs(collection) {
		if matches(docs[id], eq, ranges) {
			delete(docs, id)
			n++
		}
	}
	return n, nil
}

// EnsureIndexes registers indexes. Re-registering a known name is a no-op;
// a unique index that existing documents already violate is an error.
func (s *Store) EnsureIndexes(ctx context.Context, indexes []domain.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, idx := range indexes {
		if s.hasIndex(idx) {
			continue
		}
		if idx.Unique {
			seen := make(map[string]string)
			for _, id := range s.sortedIDs(idx.Collection) {
				key := uniqueKey(s.collections[idx.Collection][id], idx.Fields)
				if other, dup := seen[key]; dup {
					return fmt.Errorf("failed to create index %s: documents %s and %s collide: %w", idx.Name, other, id, domain.ErrDuplicateKey)
				}
				seen[key] = id
			}
		}
		s.indexes[idx.Collection] = append(s.indexes[idx.Collection], idx)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) hasIndex(idx domain.Index) bool {
	for _, existing := range s.indexes[idx.Collection] {
		if existing.Name == idx.Name {
			return true
		}
	}
	return false
}

func (s *Store) checkUnique(collection, id string, doc document) error {
	for _, idx := range s.indexes[collection] {
		if !idx.Unique {
			continue
		}
		key := uniqueKey(doc, idx.Fields)
		for otherID, other := range s.collections[collection] {
			if otherID == id {
				continue
			}
			if uniqueKey(other, idx.Fields) == key {
				return fmt.Errorf("%w: %s on %s", domain.ErrDuplicateKey, idx.Name, collection)
			}
		}
	}
	return nil
}

func (s *Store) collection(name string) map[string]document {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]document)
		s.collections[name] = docs
	}
	return docs
}

func (s *Store) sortedIDs(collection string) []string {
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func matches(doc document, eq map[string]any, ranges map[string]interfaces.Range) bool {
	for k, v := range eq {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	for k, r := range ranges {
		s, ok := doc[k].(string)
		if !ok {
			return false
		}
		if r.From != "" && s < r.From {
			return false
		}
		if r.To != "" && s > r.To {
			return false
		}
	}
	return true
}

func uniqueKey(doc document, fields []string) string {
	values := make([]any, len(fields))
	for i, f := range fields {
		values[i] = doc[f]
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decode(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
