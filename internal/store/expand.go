package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
)

// ExpandRefs resolves every declared cross-reference field of rec to a
// shallow projection (id plus the declared summary fields) of each
// referenced published record. Ids that do not resolve are dropped,
// and the listed order is preserved.
func (s *Store) ExpandRefs(ctx context.Context, res *resource.Resource, rec *Record) (map[string][]map[string]any, error) {
	if len(res.Refs) == 0 {
		return nil, nil
	}
	expanded := make(map[string][]map[string]any, len(res.Refs))
	for field, ref := range res.Refs {
		ids := refIDs(rec.Body[field])
		if len(ids) == 0 {
			expanded[field] = []map[string]any{}
			continue
		}
		target := ref.GetResourceRef()
		sqlStr := fmt.Sprintf(`SELECT id, body FROM %s WHERE published AND id = ANY($1)`, target.Table)
		rows, err := s.pool.Query(ctx, sqlStr, ids)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", field, err)
		}

		byID := make(map[uuid.UUID]map[string]any, len(ids))
		for rows.Next() {
			var id uuid.UUID
			var body map[string]any
			if err := rows.Scan(&id, &body); err != nil {
				rows.Close()
				return nil, err
			}
			projection := map[string]any{"id": id.String()}
			for _, name := range ref.Fields {
				if v, ok := body[name]; ok {
					projection[name] = v
				}
			}
			byID[id] = projection
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			if p, ok := byID[id]; ok {
				out = append(out, p)
			}
		}
		expanded[field] = out
	}
	return expanded, nil
}

// refIDs extracts well-formed ids from a raw document field; anything
// else in the list is ignored rather than failing the whole fetch.
func refIDs(val any) []uuid.UUID {
	list, ok := val.([]any)
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
