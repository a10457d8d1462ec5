package resource

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Columns is the fixed projection every record query selects.
const Columns = "id, body, published, views, downloads, created_at, updated_at"

var columnList = []string{"id", "body", "published", "views", "downloads", "created_at", "updated_at"}

// ListQuery is the normalized input of one list request: a pagination
// window, the declared filters that were actually present, and an
// optional full-text search term.
type ListQuery struct {
	Page    Page
	Filters map[string]string
	Search  string
}

// BuildListQuery builds the SELECT for a page of published records.
func (r *Resource) BuildListQuery(q ListQuery) (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Columns(columnList...).
		From(r.Table)

	sb, err := r.applyWhere(sb, q)
	if err != nil {
		return sb, err
	}

	for _, expr := range r.OrderExprs() {
		sb = sb.OrderBy(expr)
	}

	sb = sb.Limit(uint64(q.Page.Limit)).Offset(q.Page.Offset())
	return sb, nil
}

// BuildCountQuery builds the matching COUNT(*), independent of the
// pagination window.
func (r *Resource) BuildCountQuery(q ListQuery) (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Column("COUNT(*)").
		From(r.Table)
	return r.applyWhere(sb, q)
}

// BuildTopQuery builds a convenience query: published records ordered
// by one expression, e.g. the download counter or a document rating.
func (r *Resource) BuildTopQuery(orderExpr string, limit int) squirrel.SelectBuilder {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Columns(columnList...).
		From(r.Table).
		Where(squirrel.Eq{"published": true}).
		OrderBy(orderExpr, "id ASC").
		Limit(uint64(limit))
}

func (r *Resource) applyWhere(sb squirrel.SelectBuilder, q ListQuery) (squirrel.SelectBuilder, error) {
	// the published gate is always conjoined and never caller-controlled
	sb = sb.Where(squirrel.Eq{"published": true})

	for param, val := range q.Filters {
		kind, ok := r.Filters[param]
		if !ok {
			return sb, fmt.Errorf("resource %q: undeclared filter %q", r.Name, param)
		}
		switch kind {
		case FilterExact:
			sb = sb.Where(squirrel.Eq{JSONField(param): val})
		case FilterSubstring:
			sb = sb.Where(squirrel.ILike{JSONField(param): "%" + val + "%"})
		}
	}

	if q.Search != "" {
		sb = sb.Where(squirrel.Expr("fts @@ websearch_to_tsquery('simple', ?)", q.Search))
	}
	return sb, nil
}

// OrderExprs renders the default sort with a trailing identity
// tie-break, so pagination stays stable across repeated queries.
func (r *Resource) OrderExprs() []string {
	exprs := make([]string, 0, len(r.Sort)+1)
	for _, key := range r.Sort {
		expr := key.Expr
		if expr == "" {
			expr = key.Column
		}
		if key.Desc {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		exprs = append(exprs, expr)
	}
	return append(exprs, "id ASC")
}

// JSONField renders the SQL text extraction of one document field.
func JSONField(name string) string {
	return fmt.Sprintf("body->>'%s'", name)
}
