package postgresql

import (
	"fmt"
	"strings"
)

// queryBuilder implements QueryBuilder interface
type queryBuilder struct {
	selectCols  []string
	fromTable   string
	whereCond   []string
	whereArgs   []any
	orderByCols []string
	limitVal    *int
	argCounter  int
}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder() QueryBuilder {
	return &queryBuilder{
		selectCols:  make([]string, 0),
		whereCond:   make([]string, 0),
		whereArgs:   make([]any, 0),
		orderByCols: make([]string, 0),
	}
}

func (qb *queryBuilder) Select(columns ...string) QueryBuilder {
	qb.selectCols = append(qb.selectCols, columns...)
	return qb
}

func (qb *queryBuilder) From(table string) QueryBuilder {
	qb.fromTable = table
	return qb
}

func (qb *queryBuilder) Where(condition string, args ...any) QueryBuilder {
	// Replace ? placeholders with $1, $2, etc. (PostgreSQL style)
	for range args {
		qb.argCounter++
		condition = strings.Replace(condition, "?", fmt.Sprintf("$%d", qb.argCounter), 1)
	}
	qb.whereCond = append(qb.whereCond, condition)
	qb.whereArgs = append(qb.whereArgs, args...)
	return qb
}

func (qb *queryBuilder) OrderBy(column string, desc ...bool) QueryBuilder {
	order := "ASC"
	if len(desc) > 0 && desc[0] {
		order = "DESC"
	}
	qb.orderByCols = append(qb.orderByCols, fmt.Sprintf("%s %s", column, order))
	return qb
}

func (qb *queryBuilder) Limit(limit int) QueryBuilder {
	qb.limitVal = &limit
	return qb
}

func (qb *queryBuilder) Build() (string, []any) {
	var query strings.Builder

	query.WriteString("SELECT ")
	if len(qb.selectCols) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(qb.selectCols, ", "))
	}

	if qb.fromTable != "" {
		query.WriteString(" FROM ")
		query.WriteString(qb.fromTable)
	}

	if len(qb.whereCond) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(qb.whereCond, " AND "))
	}

	if len(qb.orderByCols) > 0 {
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(qb.orderByCols, ", "))
	}

	args := make([]any, 0, len(qb.whereArgs)+1)
	args = append(args, qb.whereArgs...)

	// Build must stay repeatable, so the limit placeholder is derived rather than counted.
	if qb.limitVal != nil {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", qb.argCounter+1))
		args = append(args, *qb.limitVal)
	}

	return query.String(), args
}

// insertBuilder implements InsertBuilder interface
type insertBuilder struct {
	table      string
	columns    []string
	values     [][]any
	onConflict string
}

// NewInsertBuilder creates a new insert builder
func NewInsertBuilder() InsertBuilder {
	return &insertBuilder{
		columns: make([]string, 0),
		values:  make([][]any, 0),
	}
}

func (ib *insertBuilder) Into(table string) InsertBuilder {
	ib.table = table
	return ib
}

func (ib *insertBuilder) Columns(columns ...string) InsertBuilder {
	ib.columns = columns
	return ib
}

func (ib *insertBuilder) Values(values ...any) InsertBuilder {
	ib.values = append(ib.values, values)
	return ib
}

func (ib *insertBuilder) OnConflict(columns ...string) InsertBuilder {
	ib.onConflict = fmt.Sprintf("ON CONFLICT (%s)", strings.Join(columns, ", "))
	return ib
}

func (ib *insertBuilder) OnConflictDoNothing() InsertBuilder {
	ib.onConflict += " DO NOTHING"
	return ib
}

// OnConflictDoUpdate appends a DO UPDATE SET clause. The clause refers to the
// proposed row through EXCLUDED and takes no placeholders of its own.
func (ib *insertBuilder) OnConflictDoUpdate(setClause string) InsertBuilder {
	ib.onConflict += fmt.Sprintf(" DO UPDATE SET %s", setClause)
	return ib
}

func (ib *insertBuilder) Build() (string, []any) {
	var query strings.Builder
	var args []any

	query.WriteString("INSERT INTO ")
	query.WriteString(ib.table)

	if len(ib.columns) > 0 {
		query.WriteString(" (")
		query.WriteString(strings.Join(ib.columns, ", "))
		query.WriteString(")")
	}

	query.WriteString(" VALUES ")

	valuePlaceholders := make([]string, len(ib.values))
	argIndex := 0

	for i, row := range ib.values {
		placeholders := make([]string, len(row))
		for j := range row {
			argIndex++
			placeholders[j] = fmt.Sprintf("$%d", argIndex)
			args = append(args, row[j])
		}
		valuePlaceholders[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	query.WriteString(strings.Join(valuePlaceholders, ", "))

	if ib.onConflict != "" {
		query.WriteString(" ")
		query.WriteString(ib.onConflict)
	}

	return query.String(), args
}
