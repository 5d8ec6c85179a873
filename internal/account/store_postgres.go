// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/database/schema"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/postgres"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// PostgresStore implements [Repository] and [identity.Directory] for one
// principal table.
type PostgresStore struct {
	db    postgres.DB
	table schema.PrincipalTable
	kind  identity.Kind
}

// NewPostgresStore binds a store to the users or admins table.
func NewPostgresStore(db postgres.DB, kind identity.Kind) *PostgresStore {
	table := schema.Users
	if kind == identity.KindAdmin {
		table = schema.Admins
	}
	return &PostgresStore{db: db, table: table, kind: kind}
}

var _ Repository = (*PostgresStore)(nil)

// selectList renders the column list with nullable contact columns coalesced.
func (repository *PostgresStore) selectList() string {
	t := repository.table
	columns := t.Columns()
	for i, column := range columns {
		if column == t.Email || column == t.Phone {
			columns[i] = fmt.Sprintf("COALESCE(%s, '') AS %s", column, column)
		}
	}
	return strings.Join(columns, ", ")
}

func (repository *PostgresStore) scan(row pgx.Row) (*identity.Principal, error) {
	p := &identity.Principal{Kind: repository.kind}
	err := row.Scan(
		&p.ID, &p.Code, &p.Role, &p.Name, &p.Username, &p.Email, &p.Phone, &p.Status,
		&p.PasswordHash, &p.LastPasswordHash, &p.PasswordChanged, &p.PasswordChangedAt, &p.AutoGeneratedPassword,
		&p.OtpHash, &p.OtpSentAt, &p.FailedOtpAttempts, &p.FailedOtpVerifyAt,
		&p.ResetPasswordAccess,
		&p.IsDeleted, &p.DeletedAt, &p.LastUsed, &p.LastSync, &p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (repository *PostgresStore) findOne(context context.Context, action string, conditions *query.Conditions) (*identity.Principal, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s %s LIMIT 1`,
		repository.selectList(), repository.table.Table, conditions.Where(),
	)

	principal, err := repository.scan(repository.db.QueryRow(context, sql, conditions.Args()...))
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return principal, nil
}

// # Lookups

func (repository *PostgresStore) FindByID(context context.Context, id string) (*identity.Principal, error) {
	conditions := &query.Conditions{}
	conditions.Add(repository.table.ID+" = %s", id)
	return repository.findOne(context, "find_principal_by_id", conditions)
}

/*
FindByLogin matches any supplied identifier among live principals.

Parameters:
  - context: context.Context
  - lookup: identity.LoginLookup

Returns:
  - *identity.Principal: First match
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresStore) FindByLogin(context context.Context, lookup identity.LoginLookup) (*identity.Principal, error) {
	t := repository.table

	var (
		matches []string
		args    []any
	)
	for _, candidate := range []struct{ column, value string }{
		{t.Username, lookup.Username},
		{t.Email, lookup.Email},
		{t.Phone, lookup.Phone},
	} {
		if candidate.value == "" {
			continue
		}
		args = append(args, candidate.value)
		matches = append(matches, fmt.Sprintf("%s = $%d", candidate.column, len(args)))
	}
	if len(matches) == 0 {
		return nil, dberr.ErrNotFound
	}

	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = FALSE AND (%s) LIMIT 1`,
		repository.selectList(), t.Table, t.IsDeleted, strings.Join(matches, " OR "),
	)

	principal, err := repository.scan(repository.db.QueryRow(context, sql, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "find_principal_by_login")
	}
	return principal, nil
}

func (repository *PostgresStore) FindByEmail(context context.Context, email string) (*identity.Principal, error) {
	conditions := &query.Conditions{}
	conditions.Add(repository.table.Email+" = %s", email).
		AddRaw(repository.table.IsDeleted + " = FALSE")
	return repository.findOne(context, "find_principal_by_email", conditions)
}

func (repository *PostgresStore) FindByPhone(context context.Context, phone string) (*identity.Principal, error) {
	conditions := &query.Conditions{}
	conditions.Add(repository.table.Phone+" = %s", phone).
		AddRaw(repository.table.IsDeleted + " = FALSE")
	return repository.findOne(context, "find_principal_by_phone", conditions)
}

func (repository *PostgresStore) FindResettable(context context.Context, id string) (*identity.Principal, error) {
	conditions := &query.Conditions{}
	conditions.Add(repository.table.ID+" = %s", id).
		AddRaw(repository.table.IsDeleted + " = FALSE").
		AddRaw(repository.table.ResetPasswordAccess + " = TRUE")
	return repository.findOne(context, "find_resettable_principal", conditions)
}

func (repository *PostgresStore) UsernameExists(context context.Context, username string) (bool, error) {
	sql := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, repository.table.Table, repository.table.Username)

	var exists bool
	if err := repository.db.QueryRow(context, sql, username).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "principal_username_exists")
	}
	return exists, nil
}

// # Writes

func (repository *PostgresStore) Create(context context.Context, p *identity.Principal) error {
	t := repository.table
	sql := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s, %s, %s, %s
	`,
		t.Table,
		t.ID, t.Role, t.Name, t.Username, t.Email, t.Phone, t.Status,
		t.PasswordHash, t.AutoGeneratedPassword, t.OtpHash, t.OtpSentAt, t.LastUsed, t.LastSync,
		t.Code, t.CreatedAt, t.UpdatedAt, t.Version,
	)

	err := repository.db.QueryRow(context, sql,
		p.ID, p.Role, p.Name, p.Username, p.Email, p.Phone, p.Status,
		p.PasswordHash, p.AutoGeneratedPassword, p.OtpHash, p.OtpSentAt, p.LastUsed, p.LastSync,
	).Scan(&p.Code, &p.CreatedAt, &p.UpdatedAt, &p.Version)

	return dberr.Wrap(err, "create_principal")
}

/*
Save writes every mutable field guarded by the version column.

Returns:
  - error: apperr.Conflict on a stale version, dberr.ErrNotFound, duplicate keys
*/
func (repository *PostgresStore) Save(context context.Context, p *identity.Principal) error {
	t := repository.table
	sql := fmt.Sprintf(`
		UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = NULLIF($5, ''), %s = NULLIF($6, ''), %s = $7,
			%s = $8, %s = $9, %s = $10, %s = $11, %s = $12,
			%s = $13, %s = $14, %s = $15, %s = $16,
			%s = $17,
			%s = $18, %s = $19, %s = $20, %s = $21,
			%s = NOW(), %s = %s + 1
		WHERE %s = $1 AND %s = $22
		RETURNING %s, %s
	`,
		t.Table,
		t.Role, t.Name, t.Username, t.Email, t.Phone, t.Status,
		t.PasswordHash, t.LastPasswordHash, t.PasswordChanged, t.PasswordChangedAt, t.AutoGeneratedPassword,
		t.OtpHash, t.OtpSentAt, t.FailedOtpAttempts, t.FailedOtpVerifyAt,
		t.ResetPasswordAccess,
		t.IsDeleted, t.DeletedAt, t.LastUsed, t.LastSync,
		t.UpdatedAt, t.Version, t.Version,
		t.ID, t.Version,
		t.UpdatedAt, t.Version,
	)

	err := repository.db.QueryRow(context, sql,
		p.ID,
		p.Role, p.Name, p.Username, p.Email, p.Phone, p.Status,
		p.PasswordHash, p.LastPasswordHash, p.PasswordChanged, p.PasswordChangedAt, p.AutoGeneratedPassword,
		p.OtpHash, p.OtpSentAt, p.FailedOtpAttempts, p.FailedOtpVerifyAt,
		p.ResetPasswordAccess,
		p.IsDeleted, p.DeletedAt, p.LastUsed, p.LastSync,
		p.Version,
	).Scan(&p.UpdatedAt, &p.Version)

	if errors.Is(err, pgx.ErrNoRows) {
		if _, findErr := repository.FindByID(context, p.ID); findErr != nil {
			return findErr
		}
		return apperr.Conflict(repository.kind.Label() + " was modified by another request, retry")
	}
	return dberr.Wrap(err, "save_principal")
}

/*
Touch stamps lastUsed and promotes Inactive to Active in one statement.

Returns:
  - identity.Status: Status after promotion
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresStore) Touch(context context.Context, id string, at time.Time) (identity.Status, error) {
	t := repository.table
	sql := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = CASE WHEN %s = $3 THEN $4 ELSE %s END
		WHERE %s = $1
		RETURNING %s
	`,
		t.Table,
		t.LastUsed, t.Status, t.Status, t.Status,
		t.ID,
		t.Status,
	)

	var status identity.Status
	err := repository.db.QueryRow(context, sql, id, at, identity.StatusInactive, identity.StatusActive).Scan(&status)
	if err != nil {
		return "", dberr.Wrap(err, "touch_principal")
	}
	return status, nil
}

func (repository *PostgresStore) Delete(context context.Context, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, repository.table.Table, repository.table.ID)

	tag, err := repository.db.Exec(context, sql, id)
	if err != nil {
		return dberr.Wrap(err, "delete_principal")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresStore) DeleteAll(context context.Context) (int64, error) {
	tag, err := repository.db.Exec(context, fmt.Sprintf(`DELETE FROM %s`, repository.table.Table))
	if err != nil {
		return 0, dberr.Wrap(err, "delete_all_principals")
	}
	return tag.RowsAffected(), nil
}

// # Listing

// filterConditions renders every criterion except the timestamp cursor.
func (repository *PostgresStore) filterConditions(filter Filter) *query.Conditions {
	t := repository.table
	conditions := &query.Conditions{}

	if filter.Role != "" {
		conditions.Add(t.Role+" = %s", filter.Role)
	}
	conditions.Contains(t.Name, filter.Name).
		Contains(t.Username, filter.Username).
		Contains(t.Email, filter.Email).
		Contains(t.Phone, filter.Phone)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		conditions.Add(t.Status+" = ANY(%s)", statuses)
	}

	conditions.SoftDeleted(t.IsDeleted, filter.Deleted)

	return conditions
}

/*
List returns one page of principals created at or before the cursor.

Description: Rows are newest first. When a cursor is given, the rows created
after it are counted into Counts.Latest.

Returns:
  - []*identity.Principal: Page of results
  - Counts: Total and latest counters
  - error: Database errors
*/
func (repository *PostgresStore) List(context context.Context, filter Filter) ([]*identity.Principal, Counts, error) {
	t := repository.table
	base := repository.filterConditions(filter)

	var counts Counts

	// 1. Rows created after the cursor
	if filter.Timestamp != nil {
		latest := base.Clone()
		latest.Add(t.CreatedAt+" > %s", *filter.Timestamp)
		countSQL := fmt.Sprintf(`SELECT count(*) FROM %s %s`, t.Table, latest.Where())
		if err := repository.db.QueryRow(context, countSQL, latest.Args()...).Scan(&counts.Latest); err != nil {
			return nil, counts, dberr.Wrap(err, "count_latest_principals")
		}
		base.Add(t.CreatedAt+" <= %s", *filter.Timestamp)
	}

	// 2. Total under the cursor
	countSQL := fmt.Sprintf(`SELECT count(*) FROM %s %s`, t.Table, base.Where())
	if err := repository.db.QueryRow(context, countSQL, base.Args()...).Scan(&counts.Total); err != nil {
		return nil, counts, dberr.Wrap(err, "count_principals")
	}

	// 3. Page
	listSQL := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC`,
		repository.selectList(), t.Table, base.Where(), t.CreatedAt,
	)
	if !filter.Page.All() {
		listSQL += fmt.Sprintf(" LIMIT %s OFFSET %s", base.Bind(filter.Page.Limit), base.Bind(filter.Page.Offset()))
	}

	rows, err := repository.db.Query(context, listSQL, base.Args()...)
	if err != nil {
		return nil, counts, dberr.Wrap(err, "list_principals")
	}
	defer rows.Close()

	principals := []*identity.Principal{}
	for rows.Next() {
		principal, err := repository.scan(rows)
		if err != nil {
			return nil, counts, dberr.Wrap(err, "scan_principal")
		}
		principals = append(principals, principal)
	}
	if err := rows.Err(); err != nil {
		return nil, counts, dberr.Wrap(err, "list_principals")
	}

	return principals, counts, nil
}
