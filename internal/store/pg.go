package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/chargelog/chargelog/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgStore is the Postgres implementation of Store. All records live in a
// single documents table with a JSONB payload, keyed by (user_id, kind, id).
type pgStore struct {
	db db
}

// NewPgStore constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPgStore(db db) Store {
	return &pgStore{db: db}
}

// orderByPattern restricts List ordering fields to plain identifiers.
// ORDER BY cannot be parameterized, so the field name is validated before
// being interpolated into the query.
var orderByPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

func (s *pgStore) Create(ctx context.Context, userID string, kind Kind, data []byte) (Document, error) {
	const q = `
		INSERT INTO documents (user_id, kind, id, data)
		VALUES (@user_id, @kind, @id, @data)
		RETURNING id, data, created_at, updated_at`

	args := pgx.NamedArgs{
		"user_id": userID,
		"kind":    string(kind),
		"id":      uuid.NewString(),
		"data":    data,
	}

	row := s.db.QueryRow(ctx, q, args)
	doc, err := scanDocument(row)
	if err != nil {
		return Document{}, fmt.Errorf("store.pgStore.Create: %w", storeErr(err))
	}
	return doc, nil
}

func (s *pgStore) Put(ctx context.Context, userID string, kind Kind, id string, data []byte) (Document, error) {
	const q = `
		INSERT INTO documents (user_id, kind, id, data)
		VALUES (@user_id, @kind, @id, @data)
		ON CONFLICT (user_id, kind, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		RETURNING id, data, created_at, updated_at`

	args := pgx.NamedArgs{
		"user_id": userID,
		"kind":    string(kind),
		"id":      id,
		"data":    data,
	}

	row := s.db.QueryRow(ctx, q, args)
	doc, err := scanDocument(row)
	if err != nil {
		return Document{}, fmt.Errorf("store.pgStore.Put: %w", storeErr(err))
	}
	return doc, nil
}

func (s *pgStore) Get(ctx context.Context, userID string, kind Kind, id string) (Document, error) {
	const q = `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE user_id = @user_id AND kind = @kind AND id = @id`

	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "kind": string(kind), "id": id})
	doc, err := scanDocument(row)
	if err != nil {
		return Document{}, fmt.Errorf("store.pgStore.Get: %w", storeErr(err))
	}
	return doc, nil
}

func (s *pgStore) List(ctx context.Context, userID string, kind Kind, orderBy string) ([]Document, error) {
	if !orderByPattern.MatchString(orderBy) {
		return nil, fmt.Errorf("store.pgStore.List: invalid order field %q", orderBy)
	}

	// createdAt orders on the envelope column; anything else orders on the
	// named top-level JSON field.
	orderExpr := "created_at"
	if orderBy != "createdAt" {
		orderExpr = fmt.Sprintf("data->>'%s'", orderBy)
	}

	q := fmt.Sprintf(`
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE user_id = @user_id AND kind = @kind
		ORDER BY %s DESC`, orderExpr)

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "kind": string(kind)})
	if err != nil {
		return nil, fmt.Errorf("store.pgStore.List: %w", storeErr(err))
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("store.pgStore.List: scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.pgStore.List: rows: %w", storeErr(err))
	}

	return docs, nil
}

func (s *pgStore) Update(ctx context.Context, userID string, kind Kind, id string, patch []byte) error {
	// JSONB concatenation merges top-level keys: last write wins per field.
	const q = `
		UPDATE documents
		SET data       = data || @patch,
		    updated_at = now()
		WHERE user_id = @user_id AND kind = @kind AND id = @id`

	args := pgx.NamedArgs{
		"user_id": userID,
		"kind":    string(kind),
		"id":      id,
		"patch":   patch,
	}

	tag, err := s.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("store.pgStore.Update: %w", storeErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store.pgStore.Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, userID string, kind Kind, id string) error {
	// Idempotent: zero rows affected is success.
	const q = `DELETE FROM documents WHERE user_id = @user_id AND kind = @kind AND id = @id`

	if _, err := s.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "kind": string(kind), "id": id}); err != nil {
		return fmt.Errorf("store.pgStore.Delete: %w", storeErr(err))
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanDocument to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument maps a single database row into a Document.
// It handles the nullable updated_at conversion.
func scanDocument(s scanner) (Document, error) {
	var (
		d         Document
		updatedAt pgtype.Timestamptz
	)

	if err := s.Scan(&d.ID, &d.Data, &d.CreatedAt, &updatedAt); err != nil {
		return Document{}, err
	}

	if updatedAt.Valid {
		ts := updatedAt.Time
		d.UpdatedAt = &ts
	}
	return d, nil
}

// storeErr maps low-level pgx failures onto the domain error taxonomy.
// A missing row is domain.ErrNotFound; anything else that reached the wire
// is domain.ErrStoreUnavailable with the cause attached.
func storeErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Backend rejected the statement; surface the cause for logs.
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, pgErr.Message)
	}
	return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
}
