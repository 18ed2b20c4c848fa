package relation

import (
	"database/sql"
	"fmt"
)

// Result is a fully materialized query result.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.Rows)
}

// Records returns the rows keyed by column name.
func (r *Result) Records() []map[string]any {
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			rec[col] = row[i]
		}
		records = append(records, rec)
	}
	return records
}

// Collect drains rows into a Result. The caller still owns rows and must
// close it.
func Collect(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	res := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return res, nil
}
