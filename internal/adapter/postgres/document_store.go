package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeDuplicateTable  = "42P07"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DocumentStore keeps every collection in one JSONB table keyed by
// (collection, id). Declared unique indexes become partial expression indexes.
type DocumentStore struct {
	db DB
}

func NewDocumentStore(db DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) FindOne(ctx context.Context, collection string, filter interfaces.Filter, out any) (bool, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return false, err
	}

	var body []byte
	query := `SELECT body FROM documents WHERE ` + where + ` ORDER BY id LIMIT 1`
	if err := s.db.QueryRow(ctx, query, args...).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find %s: %w", collection, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return true, nil
}

func (s *DocumentStore) Find(ctx context.Context, collection string, filter interfaces.Filter, out any) error {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return err
	}

	rows, err := s.db.Query(ctx, `SELECT body FROM documents WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	bodies := make([]json.RawMessage, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		bodies = append(bodies, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s: %w", collection, err)
	}

	b, err := json.Marshal(bodies)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (s *DocumentStore) InsertOne(ctx context.Context, collection string, doc any) error {
	m, id, err := interfaces.EncodeDocument(doc)
	if err != nil {
		return err
	}
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(body))
	if err != nil {
		return mapError(fmt.Sprintf("failed to insert into %s", collection), err)
	}
	return nil
}

// ReplaceOrUpsert replaces the first matching document, keeping its id, or
// inserts doc. A lost insert race is retried once as a replace.
func (s *DocumentStore) ReplaceOrUpsert(ctx context.Context, collection string, filter interfaces.Filter, doc any) error {
	m, id, err := interfaces.EncodeDocument(doc)
	if err != nil {
		return err
	}
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err := s.replaceOrInsert(ctx, collection, where, args, m, id)
		if err == nil {
			return nil
		}
		if attempt == 0 && errors.Is(err, domain.ErrDuplicateKey) {
			continue
		}
		return err
	}
}

func (s *DocumentStore) replaceOrInsert(ctx context.Context, collection, where string, args []any, m map[string]any, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID string
	err = tx.QueryRow(ctx, `SELECT id FROM documents WHERE `+where+` ORDER BY id LIMIT 1 FOR UPDATE`, args...).Scan(&existingID)
	switch {
	case err == nil:
		m["id"] = existingID
		body, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE documents SET body = $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
			collection, existingID, string(body)); err != nil {
			return mapError(fmt.Sprintf("failed to replace in %s", collection), err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		m["id"] = id
		body, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`,
			collection, id, string(body)); err != nil {
			return mapError(fmt.Sprintf("failed to upsert into %s", collection), err)
		}
	default:
		return fmt.Errorf("failed to lock %s: %w", collection, err)
	}

	return tx.Commit(ctx)
}

func (s *DocumentStore) UpdateFields(ctx context.Context, collection string, filter interfaces.Filter, fields map[string]any) (int64, error) {
	set, err := interfaces.NormalizeFields(fields)
	if err != nil {
		return 0, err
	}
	patch, err := json.Marshal(set)
	if err != nil {
		return 0, err
	}
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return 0, err
	}

	args = append(args, string(patch))
	query := fmt.Sprintf(`UPDATE documents SET body = body || $%d::jsonb, updated_at = NOW() WHERE %s`, len(args), where)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(fmt.Sprintf("failed to update %s", collection), err)
	}
	return tag.RowsAffected(), nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection string, filter interfaces.Filter) (int64, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return 0, err
	}

	tag, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM documents WHERE %s`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return tag.RowsAffected(), nil
}

// EnsureIndexes creates missing indexes. An index that already exists is
// fine; existing rows that violate a new unique index are not.
func (s *DocumentStore) EnsureIndexes(ctx context.Context, indexes []domain.Index) error {
	for _, idx := range indexes {
		stmt, err := indexStatement(idx)
		if err != nil {
			return err
		}

		_, err = s.db.Exec(ctx, stmt)
		if err == nil {
			continue
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case codeDuplicateTable:
				continue
			case codeUniqueViolation:
				return fmt.Errorf("failed to create index %s: existing documents collide: %w", idx.Name, domain.ErrDuplicateKey)
			}
		}
		return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
	}
	return nil
}

func (s *DocumentStore) Close(ctx context.Context) error {
	s.db.Close()
	return nil
}

func indexStatement(idx domain.Index) (string, error) {
	if !identifier.MatchString(idx.Name) || !identifier.MatchString(idx.Collection) {
		return "", fmt.Errorf("invalid index %q on %q", idx.Name, idx.Collection)
	}

	exprs := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		if !identifier.MatchString(f) {
			return "", fmt.Errorf("invalid index field %q", f)
		}
		exprs[i] = fmt.Sprintf("(body->>'%s')", f)
	}

	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON documents (%s) WHERE collection = '%s'",
		unique, idx.Name, strings.Join(exprs, ", "), idx.Collection), nil
}

func whereClause(collection string, filter interfaces.Filter) (string, []any, error) {
	eq, ranges, err := filter.Split()
	if err != nil {
		return "", nil, err
	}

	args := []any{collection}
	clauses := []string{"collection = $1"}

	if len(eq) > 0 {
		b, err := json.Marshal(eq)
		if err != nil {
			return "", nil, err
		}
		args = append(args, string(b))
		clauses = append(clauses, fmt.Sprintf("body @> $%d::jsonb", len(args)))
	}

	for _, field := range filter.Keys() {
		r, ok := ranges[field]
		if !ok || (r.From == "" && r.To == "") {
			continue
		}
		args = append(args, field)
		fieldArg := len(args)
		if r.From != "" {
			args = append(args, r.From)
			clauses = append(clauses, fmt.Sprintf(`(body->>$%d) COLLATE "C" >= $%d`, fieldArg, len(args)))
		}
		if r.To != "" {
			args = append(args, r.To)
			clauses = append(clauses, fmt.Sprintf(`(body->>$%d) COLLATE "C" <= $%d`, fieldArg, len(args)))
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, domain.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}
