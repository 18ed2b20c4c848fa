package relation

import (
	"fmt"

	"github.com/leapstack-labs/lenses/pkg/adapter"
)

// FullScanSQL returns the statement that reads every row of relation.
func FullScanSQL(relation string) string {
	return "SELECT * FROM " + adapter.QuoteIdent(relation)
}

// GroupCountSQL returns the grouped count of column, ordered by count
// descending. An empty alias means the column name.
func GroupCountSQL(relation, column, alias string) string {
	if alias == "" {
		alias = column
	}
	col := adapter.QuoteIdent(column)
	return fmt.Sprintf(
		"SELECT %s AS %s, count(*) FROM %s GROUP BY %s ORDER BY count(*) DESC",
		col, adapter.QuoteIdent(alias), adapter.QuoteIdent(relation), col,
	)
}
