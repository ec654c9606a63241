package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/basaltdb/basalt"
	"github.com/basaltdb/basalt/dialect"
	bsql "github.com/basaltdb/basalt/dialect/sql"
)

// Lifecycle states of a mock database.
const (
	stateUninitialized = iota
	stateConfigured
	stateServing
)

// DB is a scriptable in-memory stand-in for a SQL database. It records
// every statement it receives and answers from configured response specs
// instead of touching a real server. DB implements dialect.Driver, so any
// code written against that interface runs unchanged on top of it.
//
// A DB is safe for concurrent use. Statement recording, the insert-id
// counter and queue consumption are synchronized; callbacks run outside
// the lock.
type DB struct {
	mu      sync.Mutex
	id      uuid.UUID
	dialect string
	state   int
	strict  bool
	version int
	tag     string
	seq     int64
	specs   specSet
	log     []string
	shards  map[string]*Conn
}

type specSet struct {
	autoID  any
	numRows any
	fetch   any
	columns any
}

// Option configures a mock database.
type Option func(*DB)

// WithAutoID sets the insert-id spec. An integer starts a monotonically
// increasing sequence at that value; the other spec shapes apply as
// documented on the package.
func WithAutoID(spec any) Option {
	return func(db *DB) {
		switch n := spec.(type) {
		case int:
			db.seq = int64(n)
			db.specs.autoID = autoSequence{}
		case int64:
			db.seq = n
			db.specs.autoID = autoSequence{}
		default:
			db.specs.autoID = spec
		}
	}
}

// WithNumRows sets the affected-row-count spec for updates and deletes.
func WithNumRows(spec any) Option {
	return func(db *DB) { db.specs.numRows = spec }
}

// WithFetch sets the row-fetch spec for queries.
func WithFetch(spec any) Option {
	return func(db *DB) { db.specs.fetch = spec }
}

// WithColumns sets the column-list spec for queries. When absent, columns
// are derived from the keys of the first fetched row.
func WithColumns(spec any) Option {
	return func(db *DB) { db.specs.columns = spec }
}

// WithAppend suffixes every recorded statement with the given tag,
// separated by " -- ". Useful for telling interleaved scripts apart.
func WithAppend(tag string) Option {
	return func(db *DB) { db.tag = tag }
}

// WithServerVersion makes the database report the given numeric server
// version, in the same form as postgres server_version_num.
func WithServerVersion(v int) Option {
	return func(db *DB) { db.version = v }
}

// WithStrict makes queue exhaustion an error instead of falling back to
// the request default.
func WithStrict() Option {
	return func(db *DB) { db.strict = true }
}

// autoSequence marks the insert-id spec as the built-in counter.
type autoSequence struct{}

// Open returns a mock database posing as the named dialect. No server is
// contacted; the name only selects quoting and placeholder style in code
// that consults the driver dialect.
func Open(dialectName string, opts ...Option) *DB {
	db := &DB{
		id:      uuid.New(),
		dialect: dialectName,
		shards:  make(map[string]*Conn),
	}
	db.Configure(opts...)
	return db
}

// Configure applies options to the database. It may be called again on a
// live database, for example when reloading a script fixture; specs it
// does not mention are left in place.
func (db *DB) Configure(opts ...Option) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, opt := range opts {
		opt(db)
	}
	if db.state == stateUninitialized {
		db.state = stateConfigured
	}
}

// Dialect implements dialect.Driver.
func (db *DB) Dialect() string { return db.dialect }

// ID returns the unique identity of this mock database.
func (db *DB) ID() uuid.UUID { return db.id }

// ServerVersion reports the configured server version. It reports
// ok=false when no version was configured, matching a driver that could
// not probe its server.
func (db *DB) ServerVersion() (int, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.version, db.version > 0
}

// Close implements dialect.Driver. It is a no-op.
func (db *DB) Close() error { return nil }

// Shard returns a connection bound to the named shard. Statements issued
// through it are recorded with the shard name appended, except for the
// default shard. Shard connections are cached per name.
func (db *DB) Shard(name string) *Conn {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c, ok := db.shards[name]; ok {
		return c
	}
	c := &Conn{id: uuid.New(), db: db, shard: name}
	db.shards[name] = c
	return c
}

// Statements returns the recorded statements and clears the log, so each
// call observes only the traffic since the previous one.
func (db *DB) Statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := db.log
	db.log = nil
	return out
}

// record decorates the statement with its diagnostic suffixes, appends it
// to the log and returns the decorated form.
func (db *DB) record(stmt string, args []any, shard string) string {
	if len(args) > 0 {
		stmt += fmt.Sprintf(" -- args: %v", args)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.tag != "" {
		stmt += " -- " + db.tag
	}
	if shard != "" && shard != "default" {
		stmt += " -- " + shard
	}
	db.state = stateServing
	db.log = append(db.log, stmt)
	return stmt
}

func (db *DB) nextID() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.seq
	db.seq++
	return id
}

func (db *DB) snapshotSpecs() (specSet, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.specs, db.strict
}

// Exec implements dialect.ExecQuerier. Inserts resolve the insert-id spec
// and report it as LastInsertId; updates and deletes resolve the row-count
// spec. v, if non-nil, must be a *sql.Result.
func (db *DB) Exec(ctx context.Context, query string, args, v any) error {
	return db.exec(ctx, query, args, v, "", specSet{})
}

// Query implements dialect.ExecQuerier. Scripted rows are delivered
// through v, which must be a *sql.Rows.
func (db *DB) Query(ctx context.Context, query string, args, v any) error {
	return db.query(ctx, query, args, v, "", specSet{})
}

func (db *DB) exec(ctx context.Context, query string, args, v any, shard string, over specSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	argv, err := argSlice(args)
	if err != nil {
		return err
	}
	stmt := db.record(query, argv, shard)
	specs, strict := db.snapshotSpecs()
	var res result
	if isInsert(query) {
		spec := over.autoID
		if spec == nil {
			spec = specs.autoID
		}
		if _, ok := spec.(autoSequence); ok {
			res.id = db.nextID()
		} else {
			id, err := resolveCount(spec, stmt, strict, 0)
			if err != nil {
				return basalt.NewDatabaseError(stmt, err)
			}
			res.id = id
		}
		res.rows = 1
	} else {
		spec := over.numRows
		if spec == nil {
			spec = specs.numRows
		}
		n, err := resolveCount(spec, stmt, strict, 0)
		if err != nil {
			return basalt.NewDatabaseError(stmt, err)
		}
		res.rows = n
	}
	if v == nil {
		return nil
	}
	p, ok := v.(*bsql.Result)
	if !ok {
		return basalt.NewConfigurationError("mock exec into %T, want *sql.Result", v)
	}
	*p = res
	return nil
}

func (db *DB) query(ctx context.Context, query string, args, v any, shard string, over specSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	argv, err := argSlice(args)
	if err != nil {
		return err
	}
	stmt := db.record(query, argv, shard)
	specs, strict := db.snapshotSpecs()
	fetchSpec := over.fetch
	if fetchSpec == nil {
		fetchSpec = specs.fetch
	}
	data, err := resolveRows(fetchSpec, stmt, strict)
	if err != nil {
		return basalt.NewDatabaseError(stmt, err)
	}
	colSpec := over.columns
	if colSpec == nil {
		colSpec = specs.columns
	}
	cols, err := resolveColumns(colSpec, stmt, strict)
	if err != nil {
		return basalt.NewDatabaseError(stmt, err)
	}
	p, ok := v.(*bsql.Rows)
	if !ok {
		return basalt.NewConfigurationError("mock query into %T, want *sql.Rows", v)
	}
	p.ColumnScanner = newRows(cols, data)
	return nil
}

// Tx implements dialect.Driver. The transaction is recorded as BEGIN and
// a closing COMMIT or ROLLBACK in the statement log; it offers no actual
// isolation.
func (db *DB) Tx(ctx context.Context) (dialect.Tx, error) {
	return db.tx(ctx, "")
}

func (db *DB) tx(ctx context.Context, shard string) (dialect.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.record("BEGIN", nil, shard)
	return &mockTx{db: db, shard: shard}, nil
}

type mockTx struct {
	db    *DB
	shard string
	done  bool
}

func (tx *mockTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.db.exec(ctx, query, args, v, tx.shard, specSet{})
}

func (tx *mockTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.db.query(ctx, query, args, v, tx.shard, specSet{})
}

func (tx *mockTx) Commit() error {
	if tx.done {
		return basalt.NewConfigurationError("commit on a finished transaction")
	}
	tx.done = true
	tx.db.record("COMMIT", nil, tx.shard)
	return nil
}

func (tx *mockTx) Rollback() error {
	if tx.done {
		return basalt.NewConfigurationError("rollback on a finished transaction")
	}
	tx.done = true
	tx.db.record("ROLLBACK", nil, tx.shard)
	return nil
}

// Conn is a shard-bound view of a mock database. It implements
// dialect.Driver; all state lives on the underlying DB.
type Conn struct {
	id    uuid.UUID
	db    *DB
	shard string
}

// ID returns the unique identity of this connection.
func (c *Conn) ID() uuid.UUID { return c.id }

func (c *Conn) String() string {
	return fmt.Sprintf("mock.Conn(%s, shard=%s)", c.id, c.shard)
}

// Dialect implements dialect.Driver.
func (c *Conn) Dialect() string { return c.db.Dialect() }

// Close implements dialect.Driver. It is a no-op.
func (c *Conn) Close() error { return nil }

// Exec implements dialect.ExecQuerier.
func (c *Conn) Exec(ctx context.Context, query string, args, v any) error {
	return c.db.exec(ctx, query, args, v, c.shard, specSet{})
}

// Query implements dialect.ExecQuerier.
func (c *Conn) Query(ctx context.Context, query string, args, v any) error {
	return c.db.query(ctx, query, args, v, c.shard, specSet{})
}

// Tx implements dialect.Driver.
func (c *Conn) Tx(ctx context.Context) (dialect.Tx, error) {
	return c.db.tx(ctx, c.shard)
}

// Dataset is a per-call-site view of a mock database whose response specs,
// where set, shadow the database-level ones. Datasets are immutable; each
// With method returns a derived copy, so a configured dataset can be
// shared freely.
type Dataset struct {
	db    *DB
	shard string
	over  specSet
}

// Dataset returns a dataset view of the database with no overrides.
func (db *DB) Dataset() *Dataset {
	return &Dataset{db: db}
}

// Dataset returns a dataset view bound to this connection's shard.
func (c *Conn) Dataset() *Dataset {
	return &Dataset{db: c.db, shard: c.shard}
}

// WithFetch returns a dataset whose queries answer from the given spec
// instead of the database-level one.
func (d *Dataset) WithFetch(spec any) *Dataset {
	nd := *d
	nd.over.fetch = spec
	return &nd
}

// WithColumns returns a dataset with its own column-list spec.
func (d *Dataset) WithColumns(spec any) *Dataset {
	nd := *d
	nd.over.columns = spec
	return &nd
}

// WithNumRows returns a dataset with its own affected-row-count spec.
func (d *Dataset) WithNumRows(spec any) *Dataset {
	nd := *d
	nd.over.numRows = spec
	return &nd
}

// WithAutoID returns a dataset with its own insert-id spec. Unlike the
// database-level option, an integer here is a terminal value reported
// as-is for every insert, not the start of a sequence.
func (d *Dataset) WithAutoID(spec any) *Dataset {
	nd := *d
	switch n := spec.(type) {
	case int:
		nd.over.autoID = int64(n)
	default:
		nd.over.autoID = n
	}
	return &nd
}

// Exec implements dialect.ExecQuerier with the dataset's overrides.
func (d *Dataset) Exec(ctx context.Context, query string, args, v any) error {
	return d.db.exec(ctx, query, args, v, d.shard, d.over)
}

// Query implements dialect.ExecQuerier with the dataset's overrides.
func (d *Dataset) Query(ctx context.Context, query string, args, v any) error {
	return d.db.query(ctx, query, args, v, d.shard, d.over)
}

// result implements sql.Result over scripted values.
type result struct {
	id   int64
	rows int64
}

func (r result) LastInsertId() (int64, error) { return r.id, nil }
func (r result) RowsAffected() (int64, error) { return r.rows, nil }

func isInsert(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= 6 && strings.EqualFold(q[:6], "INSERT")
}

func argSlice(args any) ([]any, error) {
	switch a := args.(type) {
	case nil:
		return nil, nil
	case []any:
		return a, nil
	default:
		return nil, basalt.NewConfigurationError("mock args of %T, want []any", args)
	}
}
