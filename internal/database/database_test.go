package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor(t *testing.T) {
	pg, err := schemaFor(DriverPostgres)
	require.NoError(t, err)
	assert.Contains(t, pg, "id BIGSERIAL PRIMARY KEY")

	lite, err := schemaFor(DriverSQLite)
	require.NoError(t, err)
	assert.Contains(t, lite, "id INTEGER PRIMARY KEY AUTOINCREMENT")

	_, err = schemaFor("mysql")
	assert.Error(t, err)
}

func TestConnString(t *testing.T) {
	cfg := &DBConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", Name: "garant", SSLMode: "disable"}
	conn, err := cfg.connString()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=garant sslmode=disable", conn)

	cfg.DSN = "postgres://u:p@db/garant"
	conn, err = cfg.connString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/garant", conn)

	conn, err = (&DBConfig{Driver: DriverSQLite}).connString()
	require.NoError(t, err)
	assert.Contains(t, conn, "garant.sqlite?")

	_, err = (&DBConfig{Driver: "oracle"}).connString()
	assert.Error(t, err)
}

func TestMigrate_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db, DriverPostgres))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, &DBConfig{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	var tables int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'deals', 'payments', 'coupons', 'ads', 'mailings', 'communicate')`).
		Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 7, tables)

	// applying the schema again is a no-op
	assert.NoError(t, Migrate(ctx, db, DriverSQLite))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), &DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}
