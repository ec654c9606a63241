package mock

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/basaltdb/basalt"
)

// Script is the YAML form of a mock database configuration. Queue-shaped
// specs use their _queue variant; YAML cannot express callbacks or error
// values, those are configured in code.
//
//	dialect: postgres
//	server_version: 140000
//	append: hstore-suite
//	strict: true
//	autoid: 1
//	columns: [id, tags]
//	fetch:
//	  - {id: 1, tags: "a=>1"}
//	numrows_queue: [3, 0]
type Script struct {
	Dialect       string           `yaml:"dialect"`
	ServerVersion int              `yaml:"server_version"`
	Append        string           `yaml:"append"`
	Strict        bool             `yaml:"strict"`
	AutoID        *int             `yaml:"autoid"`
	AutoIDQueue   []int            `yaml:"autoid_queue"`
	NumRows       *int             `yaml:"numrows"`
	NumRowsQueue  []int            `yaml:"numrows_queue"`
	Columns       []string         `yaml:"columns"`
	Fetch         []map[string]any `yaml:"fetch"`
	FetchQueue    []map[string]any `yaml:"fetch_queue"`
}

// Options translates the script into configuration options.
func (s *Script) Options() []Option {
	var opts []Option
	if s.ServerVersion > 0 {
		opts = append(opts, WithServerVersion(s.ServerVersion))
	}
	if s.Append != "" {
		opts = append(opts, WithAppend(s.Append))
	}
	if s.Strict {
		opts = append(opts, WithStrict())
	}
	switch {
	case len(s.AutoIDQueue) > 0:
		opts = append(opts, WithAutoID(NewQueue(toAnySlice(s.AutoIDQueue)...)))
	case s.AutoID != nil:
		opts = append(opts, WithAutoID(*s.AutoID))
	}
	switch {
	case len(s.NumRowsQueue) > 0:
		opts = append(opts, WithNumRows(NewQueue(toAnySlice(s.NumRowsQueue)...)))
	case s.NumRows != nil:
		opts = append(opts, WithNumRows(*s.NumRows))
	}
	if s.Columns != nil {
		opts = append(opts, WithColumns(s.Columns))
	}
	switch {
	case len(s.FetchQueue) > 0:
		items := make([]any, len(s.FetchQueue))
		for i, m := range s.FetchQueue {
			items[i] = m
		}
		opts = append(opts, WithFetch(NewQueue(items...)))
	case s.Fetch != nil:
		opts = append(opts, WithFetch(s.Fetch))
	}
	return opts
}

// LoadScript parses a YAML script file.
func LoadScript(path string) (*Script, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mock: reading script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, basalt.NewConfigurationError("parsing script %s: %v", path, err)
	}
	return &s, nil
}

// OpenScript builds a mock database from a YAML script file. The script's
// dialect field, when set, overrides the default "mock" dialect.
func OpenScript(path string) (*DB, error) {
	s, err := LoadScript(path)
	if err != nil {
		return nil, err
	}
	name := s.Dialect
	if name == "" {
		name = "mock"
	}
	return Open(name, s.Options()...), nil
}

// Watch reconfigures db from the script file whenever it changes on disk.
// It returns a stop function that releases the watcher. Reload failures
// are logged and leave the previous configuration in place.
func Watch(path string, db *DB) (func() error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("mock: starting watcher: %w", err)
	}
	// Watch the directory rather than the file so atomic saves
	// (write to temp, rename over) keep being observed.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("mock: watching %s: %w", path, err)
	}
	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				s, err := LoadScript(target)
				if err != nil {
					slog.Error("mock: script reload failed", "path", target, "error", err)
					continue
				}
				db.Configure(s.Options()...)
				slog.Debug("mock: script reloaded", "path", target)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("mock: watcher error", "error", err)
			}
		}
	}()
	return w.Close, nil
}

func toAnySlice(ns []int) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}
