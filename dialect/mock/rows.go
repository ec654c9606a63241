package mock

import (
	dbsql "database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/basaltdb/basalt"
)

// scriptedRows feeds resolved fetch rows through the same ColumnScanner
// surface real driver rows expose. Column order comes from the column
// spec when present, otherwise from the sorted keys of the first row.
type scriptedRows struct {
	columns []string
	data    []map[string]any
	pos     int
	closed  bool
}

func newRows(columns []string, data []map[string]any) *scriptedRows {
	if columns == nil && len(data) > 0 {
		for k := range data[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	return &scriptedRows{columns: columns, pos: -1, data: data}
}

func (r *scriptedRows) Columns() ([]string, error) {
	return r.columns, nil
}

func (r *scriptedRows) ColumnTypes() ([]*dbsql.ColumnType, error) {
	return nil, basalt.NewConfigurationError("scripted rows carry no column type metadata")
}

func (r *scriptedRows) Next() bool {
	if r.closed || r.pos+1 >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *scriptedRows) NextResultSet() bool { return false }

func (r *scriptedRows) Err() error { return nil }

func (r *scriptedRows) Close() error {
	r.closed = true
	return nil
}

func (r *scriptedRows) Scan(dest ...any) error {
	if r.closed {
		return basalt.NewConfigurationError("scan on closed rows")
	}
	if r.pos < 0 || r.pos >= len(r.data) {
		return basalt.NewConfigurationError("scan without a call to Next")
	}
	if len(dest) != len(r.columns) {
		return basalt.NewConfigurationError("scan of %d values into %d destinations", len(r.columns), len(dest))
	}
	row := r.data[r.pos]
	for i, col := range r.columns {
		if err := assign(dest[i], row[col]); err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
	}
	return nil
}

// assign converts a scripted value into a scan destination, mirroring the
// common conversions drivers perform.
func assign(dest, v any) error {
	if s, ok := dest.(dbsql.Scanner); ok {
		return s.Scan(v)
	}
	switch d := dest.(type) {
	case *any:
		*d = v
	case *string:
		switch s := v.(type) {
		case string:
			*d = s
		case []byte:
			*d = string(s)
		default:
			*d = fmt.Sprint(v)
		}
	case *[]byte:
		switch s := v.(type) {
		case []byte:
			*d = s
		case string:
			*d = []byte(s)
		default:
			return basalt.NewConfigurationError("cannot scan %T into *[]byte", v)
		}
	case *int:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		*d = int(n)
	case *int64:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		*d = n
	case *float64:
		switch f := v.(type) {
		case float64:
			*d = f
		case float32:
			*d = float64(f)
		case int:
			*d = float64(f)
		case int64:
			*d = float64(f)
		default:
			return basalt.NewConfigurationError("cannot scan %T into *float64", v)
		}
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return basalt.NewConfigurationError("cannot scan %T into *bool", v)
		}
		*d = b
	case *time.Time:
		t, ok := v.(time.Time)
		if !ok {
			return basalt.NewConfigurationError("cannot scan %T into *time.Time", v)
		}
		*d = t
	default:
		return basalt.NewConfigurationError("unsupported scan destination %T", dest)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, basalt.NewConfigurationError("cannot scan %T into an integer", v)
	}
}
