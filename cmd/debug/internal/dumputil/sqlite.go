package dumputil

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/h2non/filetype"
	"golang.org/x/crypto/blake2b"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"sassy/codemap"
	"sassy/css"
	"sassy/utils/debug"
)

const schema = `
CREATE TABLE sources (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL,
	digest TEXT NOT NULL,
	src    TEXT NOT NULL
);
CREATE TABLE statements (
	id        INTEGER PRIMARY KEY,
	parent    INTEGER REFERENCES statements(id),
	kind      TEXT NOT NULL,
	text      TEXT NOT NULL,
	group_end INTEGER NOT NULL,
	source    INTEGER REFERENCES sources(id),
	line      INTEGER,
	col       INTEGER
);
`

// IsDatabase checks magic bytes of SQLite database.
func IsDatabase(b []byte) bool {
	return filetype.Is(b, "sqlite")
}

func digest(src string) string {
	sum := blake2b.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// DumpSQLite writes loaded sources and evaluated statements into
// <stem>.sqlite, so they could be examined with SQL.
func DumpSQLite(root *css.Root, m *codemap.Map, inPath, outDir string, overwrite bool) (retErr error) {
	outPath, err := outputPath(inPath, outDir, ".sqlite", overwrite)
	if err != nil {
		return err
	}
	if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	conn, err := sqlite.OpenConn(outPath, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer func() { retErr = errors.Join(retErr, conn.Close()) }()

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	defer sqlitex.Save(conn)(&retErr)

	ids := make(map[string]int64, len(m.Files()))
	for _, f := range m.Files() {
		if err := sqlitex.Execute(conn, `INSERT INTO sources (name, digest, src) VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{f.Name, digest(f.Src), f.Src}}); err != nil {
			return fmt.Errorf("insert source %s: %w", f.Name, err)
		}
		if _, ok := ids[f.Name]; !ok {
			ids[f.Name] = conn.LastInsertRowID()
		}
	}

	count := 0
	var walk func(parent any, nodes []css.Node) error
	walk = func(parent any, nodes []css.Node) error {
		for _, n := range nodes {
			kind, text := debug.Describe(n)
			var source, line, col any
			if loc, ok := m.LookUp(n.Pos()); ok {
				if id, ok := ids[loc.File]; ok {
					source = id
				}
				line, col = loc.Line, loc.Col
			}
			if err := sqlitex.Execute(conn,
				`INSERT INTO statements (parent, kind, text, group_end, source, line, col) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{parent, kind, text, n.IsGroupEnd(), source, line, col}}); err != nil {
				return fmt.Errorf("insert statement: %w", err)
			}
			count++
			if p, ok := n.(css.Parent); ok {
				if err := walk(conn.LastInsertRowID(), p.Children()); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(nil, root.Children()); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "sqlite: wrote %d source(s) and %d statement(s) into %s\n", len(m.Files()), count, outPath)
	return nil
}

// SummarizeSQLite reads database written by DumpSQLite back and reports
// what it holds.
func SummarizeSQLite(path string) (string, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer conn.Close()

	tw := debug.NewTreeWriter()
	tw.Line(0, "Database %s", path)
	err = sqlitex.Execute(conn, `SELECT name, digest FROM sources ORDER BY id`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			tw.Line(1, "source %s (%s)", stmt.ColumnText(0), stmt.ColumnText(1)[:16])
			return nil
		}})
	if err != nil {
		return "", fmt.Errorf("read sources: %w", err)
	}
	err = sqlitex.Execute(conn, `SELECT kind, COUNT(*) FROM statements GROUP BY kind ORDER BY kind`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			tw.Line(1, "%s: %d", stmt.ColumnText(0), stmt.ColumnInt64(1))
			return nil
		}})
	if err != nil {
		return "", fmt.Errorf("read statements: %w", err)
	}
	return tw.String(), nil
}
