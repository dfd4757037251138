package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	"github.com/Elish-Ab/qualify-law/internal/query"
	"github.com/google/uuid"
)

// MemoryStore is an in-process record store used for local development and
// tests. It evaluates predicate trees directly instead of serializing them.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]interfaces.Record
	clock       func() time.Time

	// Call counters, readable through Calls. Handy when a test needs to
	// prove an operation never reached the store.
	selects, finds, creates, updates int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]interfaces.Record),
		clock:       time.Now,
	}
}

// Calls returns the number of Select, Find, Create and Update calls served.
func (s *MemoryStore) Calls() (selects, finds, creates, updates int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selects, s.finds, s.creates, s.updates
}

func (s *MemoryStore) Select(_ context.Context, collection string, filter *query.Predicate, opts interfaces.SelectOptions) ([]interfaces.Record, error) {
	s.mu.Lock()
	s.selects++
	s.mu.Unlock()

	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []interfaces.Record
	for _, rec := range s.collections[collection] {
		if filter == nil || matches(filter, rec) {
			out = append(out, cloneRecord(rec))
		}
	}

	if opts.SortField != "" {
		sort.Slice(out, func(i, j int) bool {
			if opts.SortDesc {
				return compareField(out[j], out[i], opts.SortField)
			}
			return compareField(out[i], out[j], opts.SortField)
		})
	}
	if opts.PageSize > 0 && len(out) > opts.PageSize {
		out = out[:opts.PageSize]
	}
	return out, nil
}

func (s *MemoryStore) Find(_ context.Context, collection, id string) (*interfaces.Record, error) {
	s.mu.Lock()
	s.finds++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	copied := cloneRecord(rec)
	return &copied, nil
}

func (s *MemoryStore) Create(_ context.Context, collection string, fields map[string]any) (*interfaces.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]interfaces.Record)
	}
	rec := interfaces.Record{
		ID:          "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		CreatedTime: s.clock(),
		Fields:      cloneFields(fields),
	}
	s.collections[collection][rec.ID] = rec
	copied := cloneRecord(rec)
	return &copied, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) (*interfaces.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("store: record %s not found in %s", id, collection)
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	s.collections[collection][id] = rec
	copied := cloneRecord(rec)
	return &copied, nil
}

func matches(p *query.Predicate, rec interfaces.Record) bool {
	switch p.Op {
	case query.OpAnd:
		for _, c := range p.Children {
			if !matches(c, rec) {
				return false
			}
		}
		return true
	case query.OpOr:
		for _, c := range p.Children {
			if matches(c, rec) {
				return true
			}
		}
		return false
	case query.OpEq:
		return fieldString(rec, p.Field) == p.Value
	case query.OpEqFold:
		return strings.EqualFold(fieldString(rec, p.Field), p.Value)
	case query.OpContains:
		return p.Value != "" && strings.Contains(fieldString(rec, p.Field), p.Value)
	case query.OpLinksTo:
		for _, link := range fieldLinks(rec, p.Field) {
			if link == p.Value {
				return true
			}
		}
		return false
	}
	return false
}

func fieldString(rec interfaces.Record, field string) string {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// fieldLinks normalizes a linked-record field, which may be stored as a
// single id or a list of ids.
func fieldLinks(rec interfaces.Record, field string) []string {
	switch v := rec.Fields[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

func compareField(a, b interfaces.Record, field string) bool {
	if field == query.FieldCreatedTime {
		return a.CreatedTime.Before(b.CreatedTime)
	}
	return fieldString(a, field) < fieldString(b, field)
}

func cloneRecord(rec interfaces.Record) interfaces.Record {
	rec.Fields = cloneFields(rec.Fields)
	return rec
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
