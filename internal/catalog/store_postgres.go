// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dripside-in/dripside-backend/internal/platform/database/schema"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/postgres"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// PostgresStore implements [Repository] for one catalog table.
type PostgresStore struct {
	db    postgres.DB
	table schema.CatalogTable
}

// NewPostgresStore binds a store to the table of definition.
func NewPostgresStore(db postgres.DB, definition Definition) *PostgresStore {
	return &PostgresStore{db: db, table: definition.Table}
}

var _ Repository = (*PostgresStore)(nil)

// targets returns the scan destinations matching table.Columns().
func (repository *PostgresStore) targets(item *Item) []any {
	t := repository.table
	targets := []any{&item.ID, &item.Code, &item.Name, &item.Slug, &item.Status}
	if t.Image != "" {
		targets = append(targets, &item.Image)
	}
	if t.Documents != "" {
		targets = append(targets, &item.VerificationDocuments)
	}
	return append(targets, &item.IsDeleted, &item.DeletedAt, &item.CreatedAt, &item.UpdatedAt)
}

func (repository *PostgresStore) scan(row pgx.Row) (*Item, error) {
	item := &Item{}
	if err := row.Scan(repository.targets(item)...); err != nil {
		return nil, err
	}
	return item, nil
}

// optional returns the optional columns of the table and their values on item.
func (repository *PostgresStore) optional(item *Item) ([]string, []any) {
	var (
		columns []string
		values  []any
	)
	if repository.table.Image != "" {
		columns = append(columns, repository.table.Image)
		values = append(values, item.Image)
	}
	if repository.table.Documents != "" {
		documents := item.VerificationDocuments
		if documents == nil {
			documents = &Documents{}
		}
		columns = append(columns, repository.table.Documents)
		values = append(values, documents)
	}
	return columns, values
}

func (repository *PostgresStore) FindByID(context context.Context, id string) (*Item, error) {
	t := repository.table
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, strings.Join(t.Columns(), ", "), t.Table, t.ID)

	item, err := repository.scan(repository.db.QueryRow(context, sql, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_"+t.Table+"_item")
	}
	return item, nil
}

func (repository *PostgresStore) Create(context context.Context, item *Item) error {
	t := repository.table

	columns := []string{t.ID, t.Name, t.Slug, t.Status}
	values := []any{item.ID, item.Name, item.Slug, item.Status}
	extraColumns, extraValues := repository.optional(item)
	columns = append(columns, extraColumns...)
	values = append(values, extraValues...)

	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING %s, %s, %s
	`,
		t.Table, strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		t.Code, t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, sql, values...).Scan(&item.Code, &item.CreatedAt, &item.UpdatedAt)
	return dberr.Wrap(err, "create_"+t.Table+"_item")
}

func (repository *PostgresStore) Save(context context.Context, item *Item) error {
	t := repository.table

	assignments := []string{
		fmt.Sprintf("%s = $2", t.Name),
		fmt.Sprintf("%s = $3", t.Slug),
		fmt.Sprintf("%s = $4", t.Status),
		fmt.Sprintf("%s = $5", t.IsDeleted),
		fmt.Sprintf("%s = $6", t.DeletedAt),
	}
	values := []any{item.ID, item.Name, item.Slug, item.Status, item.IsDeleted, item.DeletedAt}

	extraColumns, extraValues := repository.optional(item)
	for i, column := range extraColumns {
		values = append(values, extraValues[i])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(values)))
	}
	assignments = append(assignments, t.UpdatedAt+" = NOW()")

	sql := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		t.Table, strings.Join(assignments, ", "), t.ID, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, sql, values...).Scan(&item.UpdatedAt)
	return dberr.Wrap(err, "save_"+t.Table+"_item")
}

func (repository *PostgresStore) Delete(context context.Context, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, repository.table.Table, repository.table.ID)

	tag, err := repository.db.Exec(context, sql, id)
	if err != nil {
		return dberr.Wrap(err, "delete_"+repository.table.Table+"_item")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresStore) DeleteAll(context context.Context) (int64, error) {
	tag, err := repository.db.Exec(context, fmt.Sprintf(`DELETE FROM %s`, repository.table.Table))
	if err != nil {
		return 0, dberr.Wrap(err, "delete_all_"+repository.table.Table)
	}
	return tag.RowsAffected(), nil
}

// # Listing

func (repository *PostgresStore) filterConditions(filter Filter) *query.Conditions {
	t := repository.table
	conditions := &query.Conditions{}

	conditions.Contains(t.Code, filter.Code).
		Contains(t.Name, filter.Name)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		conditions.Add(t.Status+" = ANY(%s)", statuses)
	}

	return conditions.SoftDeleted(t.IsDeleted, filter.Deleted)
}

/*
List returns one page of items created at or before the cursor, newest first.

Returns:
  - []*Item: Page of results
  - Counts: Total under the cursor and rows created after it
  - error: Database errors
*/
func (repository *PostgresStore) List(context context.Context, filter Filter) ([]*Item, Counts, error) {
	t := repository.table
	base := repository.filterConditions(filter)

	var counts Counts

	if filter.Timestamp != nil {
		latest := base.Clone()
		latest.Add(t.CreatedAt+" > %s", *filter.Timestamp)
		countSQL := fmt.Sprintf(`SELECT count(*) FROM %s %s`, t.Table, latest.Where())
		if err := repository.db.QueryRow(context, countSQL, latest.Args()...).Scan(&counts.Latest); err != nil {
			return nil, counts, dberr.Wrap(err, "count_latest_"+t.Table)
		}
		base.Add(t.CreatedAt+" <= %s", *filter.Timestamp)
	}

	countSQL := fmt.Sprintf(`SELECT count(*) FROM %s %s`, t.Table, base.Where())
	if err := repository.db.QueryRow(context, countSQL, base.Args()...).Scan(&counts.Total); err != nil {
		return nil, counts, dberr.Wrap(err, "count_"+t.Table)
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC`,
		strings.Join(t.Columns(), ", "), t.Table, base.Where(), t.CreatedAt,
	)
	if !filter.Page.All() {
		listSQL += fmt.Sprintf(" LIMIT %s OFFSET %s", base.Bind(filter.Page.Limit), base.Bind(filter.Page.Offset()))
	}

	rows, err := repository.db.Query(context, listSQL, base.Args()...)
	if err != nil {
		return nil, counts, dberr.Wrap(err, "list_"+t.Table)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		item, err := repository.scan(rows)
		if err != nil {
			return nil, counts, dberr.Wrap(err, "scan_"+t.Table+"_item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, counts, dberr.Wrap(err, "list_"+t.Table)
	}

	return items, counts, nil
}
