package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilder_Build(t *testing.T) {
	testCases := []struct {
		name      string
		build     func() QueryBuilder
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "select all without filters",
			build: func() QueryBuilder {
				return NewQueryBuilder().From("bars")
			},
			wantQuery: "SELECT * FROM bars",
			wantArgs:  []any{},
		},
		{
			name: "where placeholders are numbered before limit",
			build: func() QueryBuilder {
				return NewQueryBuilder().
					Select("symbol", "bucket_start").
					From("bars").
					Where("symbol = ?", "EURUSD").
					Where("granularity = ?", "1m").
					OrderBy("bucket_start", true).
					Limit(10)
			},
			wantQuery: "SELECT symbol, bucket_start FROM bars WHERE symbol = $1 AND granularity = $2 ORDER BY bucket_start DESC LIMIT $3",
			wantArgs:  []any{"EURUSD", "1m", 10},
		},
		{
			name: "ascending order by default",
			build: func() QueryBuilder {
				return NewQueryBuilder().Select("open").From("bars").OrderBy("bucket_start")
			},
			wantQuery: "SELECT open FROM bars ORDER BY bucket_start ASC",
			wantArgs:  []any{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := tc.build().Build()
			assert.Equal(t, tc.wantQuery, query)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestQueryBuilder_BuildIsRepeatable(t *testing.T) {
	qb := NewQueryBuilder().From("bars").Where("symbol = ?", "X").Limit(5)

	first, firstArgs := qb.Build()
	second, secondArgs := qb.Build()

	assert.Equal(t, first, second)
	assert.Equal(t, firstArgs, secondArgs)
}

func TestInsertBuilder_Build(t *testing.T) {
	testCases := []struct {
		name      string
		build     func() InsertBuilder
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "single row",
			build: func() InsertBuilder {
				return NewInsertBuilder().Into("bars").Columns("symbol", "open").Values("EURUSD", 1.1)
			},
			wantQuery: "INSERT INTO bars (symbol, open) VALUES ($1, $2)",
			wantArgs:  []any{"EURUSD", 1.1},
		},
		{
			name: "multiple rows",
			build: func() InsertBuilder {
				return NewInsertBuilder().Into("bars").Columns("symbol", "open").
					Values("A", 1.0).
					Values("B", 2.0)
			},
			wantQuery: "INSERT INTO bars (symbol, open) VALUES ($1, $2), ($3, $4)",
			wantArgs:  []any{"A", 1.0, "B", 2.0},
		},
		{
			name: "upsert",
			build: func() InsertBuilder {
				return NewInsertBuilder().Into("bars").Columns("symbol", "close").Values("A", 3.0).
					OnConflict("symbol").
					OnConflictDoUpdate("close = EXCLUDED.close")
			},
			wantQuery: "INSERT INTO bars (symbol, close) VALUES ($1, $2) ON CONFLICT (symbol) DO UPDATE SET close = EXCLUDED.close",
			wantArgs:  []any{"A", 3.0},
		},
		{
			name: "insert or ignore",
			build: func() InsertBuilder {
				return NewInsertBuilder().Into("bars").Columns("symbol").Values("A").
					OnConflict("symbol").
					OnConflictDoNothing()
			},
			wantQuery: "INSERT INTO bars (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING",
			wantArgs:  []any{"A"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := tc.build().Build()
			assert.Equal(t, tc.wantQuery, query)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestSplitSQLStatements(t *testing.T) {
	sql := `-- bars
CREATE TABLE a (id INT);

CREATE INDEX idx ON a (id);
`
	assert.Equal(t, []string{
		"CREATE TABLE a (id INT);",
		"CREATE INDEX idx ON a (id);",
	}, splitSQLStatements(sql))
}
