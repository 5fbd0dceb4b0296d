package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supermega-io/usermemory/internal/common"
	"github.com/supermega-io/usermemory/internal/server/config"
	"github.com/supermega-io/usermemory/internal/server/repositories/repomanager"
)

func newUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	svc := NewUserService(db, repomanager.NewPostgresRepositoryManager(), cfg)
	return svc, mock, db
}

func userRow(id, email, workspaceEmail, name string, minutes float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "workspace_email", "name",
		"subscription_tier", "total_usage_minutes", "created_at", "last_active",
	}).AddRow(id, email, workspaceEmail, name, "free", minutes, now, now)
}

func TestGetOrCreateUser_ExistingByEmail(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@x.com").
		WillReturnRows(userRow("u-1", "a@x.com", "", "A", 0))
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+last_active`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := svc.GetOrCreateUser(context.Background(), "a@x.com", "A", "")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateUser_CreatesWhenUnseen(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("new@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users`).
		WithArgs(sqlmock.AnyArg(), "new@x.com", "", "N", "free").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_active"}).AddRow(now, now))

	got, err := svc.GetOrCreateUser(context.Background(), "new@x.com", "N", "")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "free", got.SubscriptionTier)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A user created under only an email and a later caller arriving with only
// the matching workspace email end up as two distinct rows. Lookups never
// cross keys.
func TestGetOrCreateUser_DualKeyBoundary(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	now := time.Now()

	// First call: only email, nothing stored yet.
	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("human@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users`).
		WithArgs(sqlmock.AnyArg(), "human@x.com", "", "H", "free").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_active"}).AddRow(now, now))

	first, err := svc.GetOrCreateUser(context.Background(), "human@x.com", "H", "")
	require.NoError(t, err)

	// Second call: only the workspace email of the same human. No row has
	// that key, so a second user is created.
	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+workspace_email\s*=\s*\$1`).
		WithArgs("human@corp.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users`).
		WithArgs(sqlmock.AnyArg(), "", "human@corp.com", "H", "free").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_active"}).AddRow(now, now))

	second, err := svc.GetOrCreateUser(context.Background(), "", "H", "human@corp.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateUser_MissingKeys(t *testing.T) {
	svc, _, db := newUserService(t)
	defer db.Close()

	_, err := svc.GetOrCreateUser(context.Background(), "", "name only", "")
	assert.ErrorIs(t, err, common.ErrorMissingLookupKey)
}

func TestSetPreference_StringKind(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+preferences`).
		WithArgs("u-1", "theme", "string", "dark").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.SetPreference(context.Background(), "u-1", "theme", "dark"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPreference_JSONKind(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+preferences`).
		WithArgs("u-1", "layout", "json", `{"a":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.SetPreference(context.Background(), "u-1", "layout", map[string]any{"a": 1}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPreferences_RoundTrip(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"user_id", "key", "kind", "value"}).
		AddRow("u-1", "theme", "string", "dark").
		AddRow("u-1", "layout", "json", `{"a":1}`).
		AddRow("u-1", "odd", "string", `{looks like json but is not`)

	mock.ExpectQuery(`SELECT\s+user_id,\s*key,\s*kind,\s*value\s+FROM\s+preferences`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := svc.GetPreferences(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, "dark", got["theme"])
	assert.Equal(t, map[string]any{"a": float64(1)}, got["layout"])
	// A string-kind value is never sniffed as JSON, whatever it looks like.
	assert.Equal(t, `{looks like json but is not`, got["odd"])
}

func TestGetUserStats_ComposesReport(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	now := time.Now()

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-1").
		WillReturnRows(userRow("u-1", "a@x.com", "", "A", 2.0))
	mock.ExpectQuery(`(?s)SELECT\s+tool_id,\s*COUNT\(\*\)`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"tool_id", "count", "sum"}).AddRow("demo", int64(1), 120.0))
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+projects`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`(?s)SELECT\s+tool_id,\s*action,\s*created_at`).
		WithArgs("u-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"tool_id", "action", "created_at"}).AddRow("demo", "render", now))

	stats, err := svc.GetUserStats(context.Background(), "u-1")
	require.NoError(t, err)

	assert.InDelta(t, 2.0, stats.TotalUsageMinutes, 1e-9)
	require.Len(t, stats.ToolUsage, 1)
	assert.Equal(t, "demo", stats.ToolUsage[0].ToolID)
	assert.Equal(t, int64(1), stats.ToolUsage[0].Count)
	assert.Equal(t, 120.0, stats.ToolUsage[0].TotalTime)
	assert.Equal(t, int64(1), stats.ProjectCount)
	require.Len(t, stats.RecentActivity, 1)
	assert.Equal(t, "render", stats.RecentActivity[0].Action)
}

func TestGetUserStats_UserNotFound(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetUserStats(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetOrCreateUser_StorageErrorSurfaces(t *testing.T) {
	svc, mock, db := newUserService(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@x.com").
		WillReturnError(errors.New("db down"))

	_, err := svc.GetOrCreateUser(context.Background(), "a@x.com", "A", "")
	assert.ErrorContains(t, err, "db down")
}
