// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package query parses list-endpoint query strings and assembles the
// parameterized WHERE clauses the Postgres stores run.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}

// Timestamp parses a list cursor. RFC 3339, a bare date, or Unix
// milliseconds are accepted; anything else yields nil.
func Timestamp(val string) *time.Time {
	if val == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if parsed, err := time.Parse(layout, val); err == nil {
			return &parsed
		}
	}

	if millis, err := strconv.ParseInt(val, 10, 64); err == nil {
		parsed := time.UnixMilli(millis).UTC()
		return &parsed
	}

	return nil
}

// # SQL Conditions

// Conditions accumulates AND-ed SQL predicates with positional arguments.
//
// Each clause passed to [Conditions.Add] contains exactly one %s verb which
// is replaced by the next $n placeholder.
type Conditions struct {
	clauses []string
	args    []any
}

// Add appends a predicate bound to value.
func (c *Conditions) Add(clause string, value any) *Conditions {
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, "$"+strconv.Itoa(len(c.args))))
	return c
}

// AddRaw appends a predicate without arguments.
func (c *Conditions) AddRaw(clause string) *Conditions {
	c.clauses = append(c.clauses, clause)
	return c
}

// Contains appends a case-insensitive substring match on column.
// LIKE wildcards in needle are escaped.
func (c *Conditions) Contains(column, needle string) *Conditions {
	if needle == "" {
		return c
	}
	return c.Add(column+" ILIKE %s", "%"+EscapeLike(needle)+"%")
}

// Clone returns an independent copy, used to derive count queries.
func (c *Conditions) Clone() *Conditions {
	return &Conditions{
		clauses: append([]string(nil), c.clauses...),
		args:    append([]any(nil), c.args...),
	}
}

// Where renders the WHERE clause, or an empty string when there are no predicates.
func (c *Conditions) Where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}

// Args returns the positional arguments in placeholder order.
func (c *Conditions) Args() []any {
	return c.args
}

// Next returns the placeholder the next bound argument will receive.
func (c *Conditions) Next() string {
	return "$" + strconv.Itoa(len(c.args)+1)
}

// Bind appends value without a clause and returns its placeholder.
// It is used for LIMIT and OFFSET.
func (c *Conditions) Bind(value any) string {
	c.args = append(c.args, value)
	return "$" + strconv.Itoa(len(c.args))
}

// Deleted selects live rows, soft-deleted rows, or both.
type Deleted string

const (
	DeletedNo   Deleted = "NO"
	DeletedYes  Deleted = "YES"
	DeletedBoth Deleted = "BOTH"
)

// ParseDeleted maps the query value to a [Deleted] filter. Unknown values mean NO.
func ParseDeleted(value string) Deleted {
	switch Deleted(value) {
	case DeletedYes, DeletedBoth:
		return Deleted(value)
	default:
		return DeletedNo
	}
}

// SoftDeleted restricts column (a boolean flag) according to d.
func (c *Conditions) SoftDeleted(column string, d Deleted) *Conditions {
	switch d {
	case DeletedYes:
		return c.AddRaw(column + " = TRUE")
	case DeletedBoth:
		return c
	default:
		return c.AddRaw(column + " = FALSE")
	}
}

// EscapeLike escapes the LIKE metacharacters in s.
func EscapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
