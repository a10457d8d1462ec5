package resource

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newsFixture() *Resource {
	return &Resource{
		Name:           "news",
		Table:          "news",
		ViewCounted:    true,
		PublishDefault: false,
		Filters: map[string]FilterKind{
			"category": FilterExact,
			"author":   FilterExact,
			"city":     FilterSubstring,
		},
		Search: []string{"title", "summary", "content"},
		Sort: []SortKey{
			{Expr: "(body->>'isPinned')::boolean", Desc: true},
			{Column: "created_at", Desc: true},
		},
		Fields: map[string]*FieldRule{
			"title":    {Type: "string", Required: true},
			"summary":  {Type: "string"},
			"content":  {Type: "string", Required: true},
			"category": {Type: "string"},
			"author":   {Type: "string"},
			"city":     {Type: "string"},
		},
	}
}

func TestBuildListQueryAlwaysGatesOnPublished(t *testing.T) {
	res := newsFixture()
	sb, err := res.BuildListQuery(ListQuery{Page: Page{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("BuildListQuery: %v", err)
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "published = $1") {
		t.Fatalf("expected published gate, got SQL: %s", sql)
	}
	if len(args) == 0 || args[0] != true {
		t.Fatalf("expected published=true arg, got %v", args)
	}
}

func TestBuildListQueryExactFilter(t *testing.T) {
	res := newsFixture()
	sb, err := res.BuildListQuery(ListQuery{
		Page:    Page{Page: 1, Limit: 10},
		Filters: map[string]string{"category": "rulings"},
	})
	if err != nil {
		t.Fatalf("BuildListQuery: %v", err)
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "body->>'category' = ") {
		t.Fatalf("expected exact filter on category, got SQL: %s", sql)
	}
	found := false
	for _, a := range args {
		if a == "rulings" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected filter value in args, got %v", args)
	}
}

func TestBuildListQuerySubstringFilterUsesILike(t *testing.T) {
	res := newsFixture()
	sb, err := res.BuildListQuery(ListQuery{
		Page:    Page{Page: 1, Limit: 10},
		Filters: map[string]string{"city": "cai"},
	})
	if err != nil {
		t.Fatalf("BuildListQuery: %v", err)
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "body->>'city' ILIKE ") {
		t.Fatalf("expected ILIKE for substring filter, got SQL: %s", sql)
	}
	found := false
	for _, a := range args {
		if a == "%cai%" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected wrapped pattern in args, got %v", args)
	}
}

func TestBuildListQuerySearchUsesTextSearch(t *testing.T) {
	res := newsFixture()
	sb, err := res.BuildListQuery(ListQuery{
		Page:   Page{Page: 1, Limit: 10},
		Search: "court ruling",
	})
	if err != nil {
		t.Fatalf("BuildListQuery: %v", err)
	}
	sql, _, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "fts @@ websearch_to_tsquery('simple', ") {
		t.Fatalf("expected full-text predicate, got SQL: %s", sql)
	}
}

func TestBuildListQueryPagination(t *testing.T) {
	res := newsFixture()
	sb, err := res.BuildListQuery(ListQuery{Page: Page{Page: 3, Limit: 5}})
	if err != nil {
		t.Fatalf("BuildListQuery: %v", err)
	}
	sql, _, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "LIMIT 5") || !strings.Contains(sql, "OFFSET 10") {
		t.Fatalf("expected LIMIT 5 OFFSET 10, got SQL: %s", sql)
	}
}

func TestBuildListQueryRejectsUndeclaredFilter(t *testing.T) {
	res := newsFixture()
	_, err := res.BuildListQuery(ListQuery{
		Page:    Page{Page: 1, Limit: 10},
		Filters: map[string]string{"nope": "x"},
	})
	if err == nil {
		t.Fatal("expected error for undeclared filter")
	}
}

func TestBuildCountQueryIgnoresPagination(t *testing.T) {
	res := newsFixture()
	sb, err := res.BuildCountQuery(ListQuery{Page: Page{Page: 7, Limit: 5}})
	if err != nil {
		t.Fatalf("BuildCountQuery: %v", err)
	}
	sql, _, err := sb.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "COUNT(*)") {
		t.Fatalf("expected COUNT(*), got SQL: %s", sql)
	}
	if strings.Contains(sql, "LIMIT") || strings.Contains(sql, "OFFSET") {
		t.Fatalf("count query must not paginate, got SQL: %s", sql)
	}
}

func TestOrderExprsAppendIdentityTieBreak(t *testing.T) {
	res := newsFixture()
	want := []string{
		"(body->>'isPinned')::boolean DESC",
		"created_at DESC",
		"id ASC",
	}
	if diff := cmp.Diff(want, res.OrderExprs()); diff != "" {
		t.Fatalf("OrderExprs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTopQueryClampsLimit(t *testing.T) {
	res := newsFixture()
	sql, _, err := res.BuildTopQuery("downloads DESC", 5000).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "LIMIT 100") {
		t.Fatalf("expected clamped LIMIT 100, got SQL: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY downloads DESC, id ASC") {
		t.Fatalf("expected order with tie-break, got SQL: %s", sql)
	}

	sql, _, err = res.BuildTopQuery("downloads DESC", 0).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.Contains(sql, "LIMIT 10") {
		t.Fatalf("expected default LIMIT 10, got SQL: %s", sql)
	}
}
