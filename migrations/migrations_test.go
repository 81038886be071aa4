package migrations

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noRow struct{}

func (noRow) Scan(dest ...any) error { return pgx.ErrNoRows }

type fakeConn struct {
	execs []string
	tx    *fakeTx
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return noRow{}
}

func (f *fakeConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return f.tx, nil
}

type fakeTx struct {
	pgx.Tx
	execErr    error
	execs      []string
	rolledBack bool
	committed  bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	if len(t.execs) == 1 && t.execErr != nil {
		return pgconn.CommandTag{}, t.execErr
	}
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func TestListFiles_LexicalOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0003_c.sql": {Data: []byte("SELECT 3;")},
		"sql/0001_a.sql": {Data: []byte("SELECT 1;")},
		"sql/0002_b.sql": {Data: []byte("SELECT 2;")},
		"sql/README.md":  {Data: []byte("not a migration")},
		"sql/nested":     {Mode: fs.ModeDir},
	}

	files, err := ListFiles(fsys, "sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql", "0003_c.sql"}, files)
}

func TestListFiles_Embedded(t *testing.T) {
	files, err := ListFiles(migrationFS, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	// Users table must exist before the OTP log can reference it.
	var usersIdx, otpIdx int
	for i, f := range files {
		if strings.Contains(f, "create_users") {
			usersIdx = i
		}
		if strings.Contains(f, "phone_otp_logs") {
			otpIdx = i
		}
	}
	assert.Less(t, usersIdx, otpIdx)
}

func TestEmbeddedMigrations_AreGuarded(t *testing.T) {
	// Every DDL statement carries an existence guard so a bare re-run of a
	// file succeeds without relying on the schema_migrations ledger.
	files, err := ListFiles(migrationFS, "sql")
	require.NoError(t, err)

	for _, file := range files {
		content, err := fs.ReadFile(migrationFS, "sql/"+file)
		require.NoError(t, err)

		for _, line := range strings.Split(string(content), "\n") {
			stmt := strings.TrimSpace(strings.ToUpper(line))
			if strings.HasPrefix(stmt, "CREATE TABLE") ||
				strings.HasPrefix(stmt, "CREATE INDEX") ||
				strings.HasPrefix(stmt, "CREATE UNIQUE INDEX") ||
				strings.HasPrefix(stmt, "CREATE EXTENSION") {
				assert.Contains(t, stmt, "IF NOT EXISTS", "unguarded statement in %s: %s", file, line)
			}
			if strings.HasPrefix(stmt, "ALTER TABLE") && strings.Contains(stmt, "ADD COLUMN") {
				assert.Contains(t, stmt, "IF NOT EXISTS", "unguarded column add in %s: %s", file, line)
			}
		}
	}
}

func TestEmbeddedMigrations_OTPLogReferencesUsers(t *testing.T) {
	content, err := fs.ReadFile(migrationFS, "sql/0004_create_phone_otp_logs.sql")
	require.NoError(t, err)

	sql := string(content)
	assert.Contains(t, sql, "REFERENCES users(id) ON DELETE CASCADE")
	assert.Contains(t, sql, "idx_phone_otp_logs_phone")
	assert.Contains(t, sql, "idx_phone_otp_logs_expires_at")
	assert.Contains(t, sql, "idx_phone_otp_logs_user_id")
}

func TestApplyAll_RecordsDuplicateOutsideAbortedTx(t *testing.T) {
	// A duplicate-object failure leaves the transaction aborted; the file
	// must still be recorded, on a fresh connection after rollback.
	fsys := fstest.MapFS{
		"sql/0001_init.sql": {Data: []byte("CREATE TABLE users (id UUID);")},
	}
	db := &fakeConn{tx: &fakeTx{execErr: &pgconn.PgError{Code: "42P07"}}}

	err := applyAll(context.Background(), db, fsys)
	require.NoError(t, err)

	assert.True(t, db.tx.rolledBack)
	assert.False(t, db.tx.committed)

	var recorded bool
	for _, sql := range db.execs {
		if strings.Contains(sql, "INSERT INTO schema_migrations") {
			recorded = true
		}
	}
	assert.True(t, recorded, "duplicate migration must be recorded after rollback")
}

func TestApplyAll_CommitsCleanMigration(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_init.sql": {Data: []byte("CREATE TABLE IF NOT EXISTS users (id UUID);")},
	}
	db := &fakeConn{tx: &fakeTx{}}

	err := applyAll(context.Background(), db, fsys)
	require.NoError(t, err)

	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
	require.Len(t, db.tx.execs, 2)
	assert.Contains(t, db.tx.execs[1], "INSERT INTO schema_migrations")
}

func TestApplyAll_RealFailureSurfaces(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_bad.sql": {Data: []byte("CREATE TABL users;")},
	}
	db := &fakeConn{tx: &fakeTx{execErr: &pgconn.PgError{Code: "42601", Message: "syntax error"}}}

	err := applyAll(context.Background(), db, fsys)
	require.Error(t, err)
	assert.True(t, db.tx.rolledBack)
	assert.False(t, db.tx.committed)
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "duplicate column code",
			err:  &pgconn.PgError{Code: "42701"},
			want: true,
		},
		{
			name: "duplicate table code",
			err:  &pgconn.PgError{Code: "42P07"},
			want: true,
		},
		{
			name: "duplicate object code",
			err:  &pgconn.PgError{Code: "42710"},
			want: true,
		},
		{
			name: "message fallback",
			err:  errors.New(`relation "users" already exists`),
			want: true,
		},
		{
			name: "syntax error",
			err:  &pgconn.PgError{Code: "42601", Message: "syntax error"},
			want: false,
		},
		{
			name: "connection error",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAlreadyExistsError(tt.err))
		})
	}
}
