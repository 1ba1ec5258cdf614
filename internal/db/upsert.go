package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a keyed table. Columns not in Keys are overwritten
// when a row with the same key already exists.
type UpsertConfig struct {
	Table   string // optionally schema-qualified
	Columns []string
	Keys    []string
}

func (c UpsertConfig) validate() error {
	if len(c.Columns) == 0 {
		return eris.Errorf("db: upsert %s: no columns", c.Table)
	}
	if len(c.Keys) == 0 {
		return eris.Errorf("db: upsert %s: no key columns", c.Table)
	}
	for _, k := range c.Keys {
		if !slices.Contains(c.Columns, k) {
			return eris.Errorf("db: upsert %s: key %q is not a column", c.Table, k)
		}
	}
	return nil
}

// stagingTable names the per-transaction table rows are copied into.
func (c UpsertConfig) stagingTable() string {
	return strings.ReplaceAll(c.Table, ".", "_") + "_staging"
}

// statements returns the staging table DDL and the merge statement.
func (c UpsertConfig) statements() (stage, merge string) {
	target := identifier(c.Table).Sanitize()
	staging := pgx.Identifier{c.stagingTable()}.Sanitize()
	cols := quoteList(c.Columns)

	stage = fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP", staging, target)

	var set []string
	for _, col := range c.Columns {
		if slices.Contains(c.Keys, col) {
			continue
		}
		q := pgx.Identifier{col}.Sanitize()
		set = append(set, q+" = EXCLUDED."+q)
	}
	onConflict := "DO NOTHING"
	if len(set) > 0 {
		onConflict = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	merge = fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		target, cols, cols, staging, quoteList(c.Keys), onConflict)
	return stage, merge
}

// BulkUpsert copies rows into a staging table and merges them into the
// target in one transaction. It returns the number of rows merged.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	stage, merge := cfg.statements()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: begin", cfg.Table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, stage); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: create staging table", cfg.Table)
	}
	if _, err := CopyFrom(ctx, tx, cfg.stagingTable(), cfg.Columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: stage rows", cfg.Table)
	}
	tag, err := tx.Exec(ctx, merge)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: merge", cfg.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: commit", cfg.Table)
	}
	return tag.RowsAffected(), nil
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
