package projects

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/supermega-io/usermemory/internal/common"
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

func TestUpsert_Insert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+projects.*ON\s+CONFLICT\s+\(id\)`).
		WithArgs("p-1", "u-1", "demo", "p1", []byte(`{"a":1}`), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &models.Project{ID: "p-1", UserID: "u-1", ToolID: "demo", Name: "p1", Data: []byte(`{"a":1}`)}
	if err := repo.Upsert(context.Background(), p); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
}

func TestUpsert_OwnedByOtherUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+projects`).
		WithArgs("p-1", "u-2", "demo", "p1", []byte(`{}`), "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := &models.Project{ID: "p-1", UserID: "u-2", ToolID: "demo", Name: "p1", Data: []byte(`{}`)}
	err := repo.Upsert(context.Background(), p)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListByUser_FilterByTool(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "tool_id", "name", "data", "thumbnail_key", "created_at", "updated_at",
	}).AddRow("p-1", "u-1", "demo", "p1", []byte(`{}`), "", now, now)

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+projects\s+WHERE\s+user_id\s*=\s*\$1.*ORDER\s+BY\s+updated_at\s+DESC`).
		WithArgs("u-1", "demo").
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u-1", "demo")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "p1" {
		t.Fatalf("unexpected projects: %+v", got)
	}
}

func TestCountByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+projects`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := repo.CountByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("CountByUser error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4, got %d", n)
	}
}

func TestSetThumbnailKey_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+projects\s+SET\s+thumbnail_key`).
		WithArgs("ghost", "k").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetThumbnailKey(context.Background(), "ghost", "k")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
