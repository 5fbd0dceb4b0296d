package usage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/supermega-io/usermemory/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestAppend_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+tool_usage`).
		WithArgs("u-1", "demo", "render", []byte(`{"in":1}`), nil, 120.0, true).
		WillReturnRows(rows)

	rec := &models.ToolUsage{
		UserID: "u-1", ToolID: "demo", Action: "render",
		Input: []byte(`{"in":1}`), ProcessingTime: 120, Success: true,
	}
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if rec.ID != 7 || !rec.CreatedAt.Equal(now) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestAppend_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+tool_usage`).
		WillReturnError(errors.New("db down"))

	err := repo.Append(context.Background(), &models.ToolUsage{UserID: "u-1", ToolID: "demo", Action: "a"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSummaryByTool_OrdersByCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"tool_id", "count", "sum"}).
		AddRow("voice_ai_studio", int64(5), 600.0).
		AddRow("demo", int64(1), 120.0)

	mock.ExpectQuery(`(?s)SELECT\s+tool_id,\s*COUNT\(\*\).*GROUP\s+BY\s+tool_id`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.SummaryByTool(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("SummaryByTool error: %v", err)
	}
	if len(got) != 2 || got[0].ToolID != "voice_ai_studio" || got[0].Count != 5 || got[1].TotalTime != 120 {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestRecent_ReturnsNewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"tool_id", "action", "created_at"}).
		AddRow("demo", "render", now).
		AddRow("demo", "upload", now.Add(-time.Minute))

	mock.ExpectQuery(`(?s)SELECT\s+tool_id,\s*action,\s*created_at.*ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2`).
		WithArgs("u-1", 10).
		WillReturnRows(rows)

	got, err := repo.Recent(context.Background(), "u-1", 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 2 || got[0].Action != "render" {
		t.Fatalf("unexpected activity: %+v", got)
	}
}
