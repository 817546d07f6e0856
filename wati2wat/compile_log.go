package main

import (
	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// LogEntry is what we know about an output from the last time it was
// written.
type LogEntry struct {
	Output      string
	Input       string
	InputHash   string
	Fingerprint uint64
	OutputHash  uint64
	StartMillis int64
	EndMillis   int64
}

// CompileLog persists one LogEntry per output path in a sqlite file. It is
// not safe for concurrent use; the builder only touches it from the main
// loop.
type CompileLog struct {
	path string
	conn *sqlite.Conn
}

const compileLogSchema = `
CREATE TABLE IF NOT EXISTS compile_log_meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS compile_log (
	output      TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	input_hash  TEXT NOT NULL,
	fingerprint INTEGER NOT NULL,
	output_hash INTEGER NOT NULL,
	start_ms    INTEGER NOT NULL,
	end_ms      INTEGER NOT NULL
);`

// OpenCompileLog opens or creates the log at path. A log written by an
// incompatible version is emptied.
func OpenCompileLog(path string) (*CompileLog, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, errors.Wrapf(err, "opening compile log %s", path)
	}
	l := &CompileLog{path: path, conn: conn}
	if err := l.init(); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "loading compile log %s", path)
	}
	return l, nil
}

func (l *CompileLog) init() error {
	if err := sqlitex.ExecuteScript(l.conn, compileLogSchema, nil); err != nil {
		return err
	}
	version := int64(-1)
	err := sqlitex.Execute(l.conn, "SELECT value FROM compile_log_meta WHERE key = 'version';",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				version = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return err
	}
	if version == kCompileLogVersion {
		return nil
	}
	if version != -1 {
		Warning("compile log version %d is too old; starting over", version)
	}
	if err := sqlitex.Execute(l.conn, "DELETE FROM compile_log;", nil); err != nil {
		return err
	}
	return sqlitex.Execute(l.conn,
		"INSERT INTO compile_log_meta (key, value) VALUES ('version', ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value;",
		&sqlitex.ExecOptions{Args: []any{kCompileLogVersion}})
}

func (l *CompileLog) Close() error {
	return l.conn.Close()
}

// Lookup returns the entry for output, or nil if there is none.
func (l *CompileLog) Lookup(output string) (*LogEntry, error) {
	stmt, err := l.conn.Prepare("SELECT output, input, input_hash, fingerprint, output_hash, start_ms, end_ms " +
		"FROM compile_log WHERE output = $output;")
	if err != nil {
		return nil, err
	}
	defer stmt.Reset()
	stmt.SetText("$output", output)
	hasRow, err := stmt.Step()
	if err != nil || !hasRow {
		return nil, err
	}
	return scanEntry(stmt), nil
}

func scanEntry(stmt *sqlite.Stmt) *LogEntry {
	return &LogEntry{
		Output:      stmt.ColumnText(0),
		Input:       stmt.ColumnText(1),
		InputHash:   stmt.ColumnText(2),
		Fingerprint: uint64(stmt.ColumnInt64(3)),
		OutputHash:  uint64(stmt.ColumnInt64(4)),
		StartMillis: stmt.ColumnInt64(5),
		EndMillis:   stmt.ColumnInt64(6),
	}
}

// Record inserts or replaces the entry for e.Output.
func (l *CompileLog) Record(e *LogEntry) error {
	stmt, err := l.conn.Prepare("INSERT INTO compile_log " +
		"(output, input, input_hash, fingerprint, output_hash, start_ms, end_ms) VALUES " +
		"($output, $input, $input_hash, $fingerprint, $output_hash, $start_ms, $end_ms) " +
		"ON CONFLICT(output) DO UPDATE SET input = $input, input_hash = $input_hash, " +
		"fingerprint = $fingerprint, output_hash = $output_hash, start_ms = $start_ms, end_ms = $end_ms;")
	if err != nil {
		return err
	}
	defer stmt.Reset()
	stmt.SetText("$output", e.Output)
	stmt.SetText("$input", e.Input)
	stmt.SetText("$input_hash", e.InputHash)
	stmt.SetInt64("$fingerprint", int64(e.Fingerprint))
	stmt.SetInt64("$output_hash", int64(e.OutputHash))
	stmt.SetInt64("$start_ms", e.StartMillis)
	stmt.SetInt64("$end_ms", e.EndMillis)
	if _, err := stmt.Step(); err != nil {
		return errors.Wrapf(err, "recording %s", e.Output)
	}
	return nil
}

// Entries returns every entry ordered by output path.
func (l *CompileLog) Entries() ([]*LogEntry, error) {
	var entries []*LogEntry
	err := sqlitex.Execute(l.conn,
		"SELECT output, input, input_hash, fingerprint, output_hash, start_ms, end_ms "+
			"FROM compile_log ORDER BY output;",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, scanEntry(stmt))
				return nil
			},
		})
	return entries, err
}

// Remove deletes the entries for outputs in a single transaction.
func (l *CompileLog) Remove(outputs ...string) (err error) {
	defer sqlitex.Save(l.conn)(&err)
	for _, output := range outputs {
		err = sqlitex.Execute(l.conn, "DELETE FROM compile_log WHERE output = ?;",
			&sqlitex.ExecOptions{Args: []any{output}})
		if err != nil {
			return errors.Wrapf(err, "removing %s", output)
		}
	}
	return nil
}
