//go:build integration

package observed_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibra/internal/observed"
	"calibra/pkg/testutil/containers"
)

const flowSchema = `
CREATE SCHEMA IF NOT EXISTS dwd;
CREATE TABLE dwd.flow_gantry (
    start_gantryid text NOT NULL,
    start_time     timestamptz NOT NULL,
    k1 double precision, k2 double precision, k3 double precision, k4 double precision,
    h1 double precision, h2 double precision, h3 double precision,
    h4 double precision, h5 double precision, h6 double precision
);`

func TestPostgresStoreQuery(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, pg.DSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, flowSchema)
	require.NoError(t, err)

	start := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	_, err = pool.Exec(ctx, `
		INSERT INTO dwd.flow_gantry (start_gantryid, start_time, k1, k2, k3, k4, h1, h2, h3, h4, h5, h6) VALUES
		('G1', $1, 10, 2, 0, 0, 1, 0, 0, 0, 0, 0),
		('G1', $2, 5, NULL, 0, 0, 0, 0, 0, 0, 0, 0),
		('G2', $1, 7, 0, 0, 0, 0, 0, 0, 0, 0, 0),
		('G3', $1, 99, 0, 0, 0, 0, 0, 0, 0, 0, 0),
		('G1', $3, 99, 0, 0, 0, 0, 0, 0, 0, 0, 0)`,
		start.Add(time.Minute), start.Add(6*time.Minute), start.Add(time.Hour))
	require.NoError(t, err)

	store := observed.NewPostgresStore(pool, "dwd.flow_gantry", 10*time.Second)
	rows, err := store.Query(ctx, []string{"G1", "G2"}, start, start.Add(30*time.Minute))
	require.NoError(t, err)

	require.Len(t, rows, 3, "G3 and the row outside the window are excluded")
	assert.Equal(t, "G1", rows[0].Station)
	assert.Equal(t, 13.0, rows[0].Count())
	assert.Equal(t, 5.0, rows[1].Count(), "NULL class columns are excluded, not zeroed")
	assert.Equal(t, "G2", rows[2].Station)
}

func TestPostgresStoreQueryTimeout(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, pg.DSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, flowSchema)
	require.NoError(t, err)

	store := observed.NewPostgresStore(pool, "dwd.flow_gantry", time.Nanosecond)
	_, err = store.Query(ctx, []string{"G1"}, time.Now(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}
