package observed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	dErrors "calibra/pkg/domain-errors"
)

// PostgresStore reads gantry flow rows from the observed-data warehouse. The
// pool and table name arrive through the constructor; nothing here touches
// ambient configuration.
type PostgresStore struct {
	pool         *pgxpool.Pool
	table        string
	queryTimeout time.Duration
}

// NewPostgresStore wires a flow store against the given pool and fully
// qualified table name.
func NewPostgresStore(pool *pgxpool.Pool, table string, queryTimeout time.Duration) *PostgresStore {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &PostgresStore{pool: pool, table: table, queryTimeout: queryTimeout}
}

// Query fetches rows whose station is in the set and whose timestamp falls in
// [start, end). Each query is bounded by the configured timeout; expiry
// surfaces as a data-source error, never a crash.
func (s *PostgresStore) Query(ctx context.Context, stations []string, start, end time.Time) ([]FlowRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT start_gantryid, start_time, %s
		FROM %s
		WHERE start_gantryid = ANY($1)
		  AND start_time >= $2 AND start_time < $3
		ORDER BY start_gantryid, start_time`,
		strings.Join(ClassColumns, ", "), s.table)

	rows, err := s.pool.Query(ctx, query, stations, start, end)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataSource, "query gantry flow")
	}
	defer rows.Close()

	var out []FlowRow
	for rows.Next() {
		row := FlowRow{Classes: make([]*float64, len(ClassColumns))}
		dest := make([]any, 0, len(ClassColumns)+2)
		dest = append(dest, &row.Station, &row.Timestamp)
		for i := range row.Classes {
			dest = append(dest, &row.Classes[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDataSource, "scan gantry flow row")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataSource, "read gantry flow rows")
	}
	return out, nil
}
