package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Statements returns the schema statements for dialect in file order.
func Statements(dialect string) ([]string, error) {
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
	entries, err := files.ReadDir(dialect)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var statements []string
	for _, name := range names {
		content, err := files.ReadFile(path.Join(dialect, name))
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(content), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

// Apply runs every statement. They are idempotent, so Apply is safe on every start.
func Apply(ctx context.Context, db *sql.DB, dialect string) error {
	statements, err := Statements(dialect)
	if err != nil {
		return err
	}
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s migration statement %d: %w", dialect, i+1, err)
		}
	}
	return nil
}
