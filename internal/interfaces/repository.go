package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/lunchmate/internal/domain"
)

// Filter matches documents by equality on top-level fields. A Range value
// matches an inclusive, string-ordered interval instead.
type Filter map[string]any

// Range is an inclusive interval on a string-valued field.
type Range struct {
	From string
	To   string
}

// DocumentStore is the persistence port. Documents are JSON-shaped structs
// carrying an "id" field.
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter Filter, out any) (bool, error)
	Find(ctx context.Context, collection string, filter Filter, out any) error
	InsertOne(ctx context.Context, collection string, doc any) error
	ReplaceOrUpsert(ctx context.Context, collection string, filter Filter, doc any) error
	UpdateFields(ctx context.Context, collection string, filter Filter, fields map[string]any) (int64, error)
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)
	EnsureIndexes(ctx context.Context, indexes []domain.Index) error
	Close(ctx context.Context) error
}

// UserDirectory resolves denormalized display fields.
type UserDirectory interface {
	ResolveDisplayName(ctx context.Context, userID string) (string, error)
}

// Split separates equality terms from range terms and converts equality
// values to their JSON representation, which is how stores persist them.
func (f Filter) Split() (map[string]any, map[string]Range, error) {
	eq := make(map[string]any, len(f))
	ranges := make(map[string]Range)

	for k, v := range f {
		if r, ok := v.(Range); ok {
			ranges[k] = r
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode filter field %s: %w", k, err)
		}
		var norm any
		if err := json.Unmarshal(b, &norm); err != nil {
			return nil, nil, fmt.Errorf("failed to normalize filter field %s: %w", k, err)
		}
		eq[k] = norm
	}
	return eq, ranges, nil
}

// Keys returns the filter's field names in a stable order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EncodeDocument turns a document into a JSON object and extracts its id.
func EncodeDocument(doc any) (map[string]any, string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, "", fmt.Errorf("document is not an object: %w", err)
	}
	id, _ := m["id"].(string)
	if id == "" {
		return nil, "", fmt.Errorf("document has no id")
	}
	return m, id, nil
}

// NormalizeFields converts update values to their JSON representation.
func NormalizeFields(fields map[string]any) (map[string]any, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize fields: %w", err)
	}
	delete(out, "id")
	return out, nil
}
