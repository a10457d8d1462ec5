// Package store executes record queries against PostgreSQL. Each record
// is a JSONB document plus a handful of promoted columns: the published
// gate, the view/download counters and the store-managed timestamps.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
)

var (
	// ErrNotFound: the id does not resolve to a visible record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey: a unique constraint rejected the write.
	ErrDuplicateKey = errors.New("duplicate key")
)

type Record struct {
	ID        uuid.UUID
	Body      map[string]any
	Published bool
	Views     int64
	Downloads int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// List returns one page of published records plus the total match count.
// The count runs as an independent query so it never depends on the
// pagination window.
func (s *Store) List(ctx context.Context, res *resource.Resource, q resource.ListQuery) ([]Record, int64, error) {
	sb, err := res.BuildListQuery(q)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.selectRecords(ctx, sb)
	if err != nil {
		return nil, 0, err
	}

	cb, err := res.BuildCountQuery(q)
	if err != nil {
		return nil, 0, err
	}
	sqlStr, args, err := cb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("count sql: %w", err)
	}
	var total int64
	if err := s.pool.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", res.Table, err)
	}
	return records, total, nil
}

// Top returns published records ordered by one expression, for the
// convenience endpoints (top downloads, top rated, pinned news).
func (s *Store) Top(ctx context.Context, res *resource.Resource, orderExpr string, limit int) ([]Record, error) {
	return s.selectRecords(ctx, res.BuildTopQuery(orderExpr, limit))
}

// FindWhere returns published records matching one declared filter,
// backing the branch code/city lookups.
func (s *Store) FindWhere(ctx context.Context, res *resource.Resource, filters map[string]string, limit int) ([]Record, error) {
	q := resource.ListQuery{
		Page:    resource.Page{Page: 1, Limit: limit},
		Filters: filters,
	}
	sb, err := res.BuildListQuery(q)
	if err != nil {
		return nil, err
	}
	return s.selectRecords(ctx, sb)
}

// GetForView fetches one published record by id. For view-counted
// collections the fetch and the counter increment are a single atomic
// UPDATE, so concurrent reads never lose increments.
func (s *Store) GetForView(ctx context.Context, res *resource.Resource, id uuid.UUID) (*Record, error) {
	if res.ViewCounted {
		return s.increment(ctx, res, id, "views")
	}
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Columns(strings.Split(resource.Columns, ", ")...).
		From(res.Table).
		Where(squirrel.Eq{"id": id, "published": true})
	records, err := s.selectRecords(ctx, sb)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// IncrementDownloads bumps the download counter and returns the
// post-increment record, same atomicity contract as GetForView.
func (s *Store) IncrementDownloads(ctx context.Context, res *resource.Resource, id uuid.UUID) (*Record, error) {
	return s.increment(ctx, res, id, "downloads")
}

func (s *Store) increment(ctx context.Context, res *resource.Resource, id uuid.UUID, counter string) (*Record, error) {
	sqlStr := fmt.Sprintf(
		`UPDATE %s SET %s = %s + 1 WHERE id = $1 AND published RETURNING %s`,
		res.Table, counter, counter, resource.Columns,
	)
	rec, err := scanRecord(s.pool.QueryRow(ctx, sqlStr, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Get fetches one record by id regardless of its published state.
// Mutations go through here: an unpublished record must stay reachable
// for update, or it could never be published.
func (s *Store) Get(ctx context.Context, res *resource.Resource, id uuid.UUID) (*Record, error) {
	sqlStr := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, resource.Columns, res.Table)
	rec, err := scanRecord(s.pool.QueryRow(ctx, sqlStr, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Create persists a validated document and returns the stored record.
func (s *Store) Create(ctx context.Context, res *resource.Resource, body map[string]any, published bool) (*Record, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	sb := squirrel.Insert(res.Table).PlaceholderFormat(squirrel.Dollar).
		Columns("id", "body", "published", "fts").
		Values(uuid.New(), raw, published, squirrel.Expr("to_tsvector('simple', ?)", searchText(res, body))).
		Suffix("RETURNING " + resource.Columns)
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("insert sql: %w", err)
	}
	rec, err := scanRecord(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return rec, nil
}

// Update replaces the document with the already-merged body. The caller
// re-validated the merged document before getting here.
func (s *Store) Update(ctx context.Context, res *resource.Resource, id uuid.UUID, body map[string]any, published bool) (*Record, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	sb := squirrel.Update(res.Table).PlaceholderFormat(squirrel.Dollar).
		Set("body", raw).
		Set("published", published).
		Set("fts", squirrel.Expr("to_tsvector('simple', ?)", searchText(res, body))).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + resource.Columns)
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("update sql: %w", err)
	}
	rec, err := scanRecord(s.pool.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return rec, nil
}

// Delete removes the record permanently.
func (s *Store) Delete(ctx context.Context, res *resource.Resource, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, res.Table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", res.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) selectRecords(ctx context.Context, sb squirrel.SelectBuilder) ([]Record, error) {
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list sql: %w", err)
	}
	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Body, &rec.Published, &rec.Views, &rec.Downloads, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(&rec.ID, &rec.Body, &rec.Published, &rec.Views, &rec.Downloads, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// searchText concatenates the resource's declared text fields; the
// result feeds the fts vector maintained on every write.
func searchText(res *resource.Resource, body map[string]any) string {
	parts := make([]string, 0, len(res.Search))
	for _, field := range res.Search {
		if s, ok := body[field].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}
