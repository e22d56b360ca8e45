// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package query

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Args collects positional arguments and hands out their placeholders.
type Args struct {
	values []interface{}
}

// NewArgs creates an empty argument list.
func NewArgs() *Args {
	return &Args{}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v interface{}) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// UUID appends id as a string and returns a placeholder cast to UUID.
func (a *Args) UUID(id uuid.UUID) string {
	return "CAST(" + a.Add(id.String()) + " AS UUID)"
}

// UUIDList returns a comma-separated list of UUID placeholders for use
// inside IN (...). An empty list yields "NULL", which matches nothing.
func (a *Args) UUIDList(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return "NULL"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = a.UUID(id)
	}
	return strings.Join(parts, ", ")
}

// List returns a comma-separated list of placeholders for values. An empty
// list yields "NULL".
func (a *Args) List(values []string) string {
	if len(values) == 0 {
		return "NULL"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = a.Add(v)
	}
	return strings.Join(parts, ", ")
}

// Values returns the collected arguments in placeholder order.
func (a *Args) Values() []interface{} {
	return a.values
}

// Len returns the number of collected arguments.
func (a *Args) Len() int {
	return len(a.values)
}

// WhereBuilder joins conditions with AND. Conditions take their placeholders
// from the shared Args.
type WhereBuilder struct {
	args    *Args
	clauses []string
}

// NewWhereBuilder creates a builder bound to args.
func NewWhereBuilder(args *Args) *WhereBuilder {
	return &WhereBuilder{args: args}
}

// AddClause adds a condition whose placeholders were already taken from Args.
func (wb *WhereBuilder) AddClause(clause string) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	return wb
}

// AddIf adds clause only when cond holds. The clause is built lazily so
// unused conditions do not consume placeholders.
func (wb *WhereBuilder) AddIf(cond bool, clause func(a *Args) string) *WhereBuilder {
	if cond {
		wb.clauses = append(wb.clauses, clause(wb.args))
	}
	return wb
}

// Build returns the joined conditions and the arguments. With no conditions
// it returns "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", wb.args.Values()
	}
	return strings.Join(wb.clauses, " AND "), wb.args.Values()
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	where, args := wb.Build()
	return "WHERE " + where, args
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no conditions were added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
