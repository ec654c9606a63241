package mock

import (
	"sync"

	"github.com/basaltdb/basalt"
)

// A response spec describes how a mock database answers one kind of
// request. Specs are dynamically typed; the recognized shapes are:
//
//   - nil: absent, the caller's default applies.
//   - a terminal value of the kind the request expects (row map, slice of
//     row maps, integer, column list).
//   - *Queue: an ordered list consumed front to back, exactly once per
//     access.
//   - Callback: a function of the statement text.
//   - error: a scripted failure raised on every access.
//
// Shapes nest: a queue of callbacks, a callback returning a queue, and so
// on, resolve by repeated dispatch until a terminal value is reached.

// Callback computes a response from the executed statement text. Callbacks
// run outside the database lock and must not assume exclusivity.
type Callback func(stmt string) any

// Queue is an ordered response spec consumed front to back. A Queue may be
// shared between a database and its datasets; popping is internally
// synchronized.
type Queue struct {
	mu    sync.Mutex
	items []any
}

// NewQueue returns a queue over the given items.
func NewQueue(items ...any) *Queue {
	return &Queue{items: items}
}

// Len returns the number of unconsumed items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) pop() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

// resolve dispatches a spec against the statement until a terminal value
// is reached. Queue exhaustion yields (nil, nil) so the caller applies its
// default, unless strict mode makes exhaustion an error. A spec that is an
// error value resolves to that error on every access.
func resolve(spec any, stmt string, strict bool) (any, error) {
	for {
		switch s := spec.(type) {
		case nil:
			return nil, nil
		case *Queue:
			v, ok := s.pop()
			if !ok {
				if strict {
					return nil, basalt.ErrScriptExhausted
				}
				return nil, nil
			}
			spec = v
		case Callback:
			spec = s(stmt)
		case func(stmt string) any:
			spec = s(stmt)
		case error:
			return nil, s
		default:
			return s, nil
		}
	}
}

// resolveCount resolves a row-count or insert-id style spec to an integer,
// falling back to def.
func resolveCount(spec any, stmt string, strict bool, def int64) (int64, error) {
	v, err := resolve(spec, stmt, strict)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case nil:
		return def, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, basalt.NewConfigurationError("numeric response spec resolved to %T", v)
	}
}

// resolveRows resolves a row-fetch spec to a slice of row maps. Terminal
// maps and slices are defensively copied so callers cannot corrupt the
// script.
func resolveRows(spec any, stmt string, strict bool) ([]map[string]any, error) {
	v, err := resolve(spec, stmt, strict)
	if err != nil {
		return nil, err
	}
	switch rows := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{copyRow(rows)}, nil
	case []map[string]any:
		out := make([]map[string]any, len(rows))
		for i, r := range rows {
			out[i] = copyRow(r)
		}
		return out, nil
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, basalt.NewConfigurationError("row-fetch spec resolved to element of %T", r)
			}
			out = append(out, copyRow(m))
		}
		return out, nil
	default:
		return nil, basalt.NewConfigurationError("row-fetch spec resolved to %T", v)
	}
}

// resolveColumns resolves a column-list spec.
func resolveColumns(spec any, stmt string, strict bool) ([]string, error) {
	v, err := resolve(spec, stmt, strict)
	if err != nil {
		return nil, err
	}
	switch cols := v.(type) {
	case nil:
		return nil, nil
	case []string:
		out := make([]string, len(cols))
		copy(out, cols)
		return out, nil
	case []any:
		out := make([]string, 0, len(cols))
		for _, c := range cols {
			s, ok := c.(string)
			if !ok {
				return nil, basalt.NewConfigurationError("column spec resolved to element of %T", c)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, basalt.NewConfigurationError("column spec resolved to %T", v)
	}
}

func copyRow(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
