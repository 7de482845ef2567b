package refreshsessions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
)

const sid = "0b8f3c7e-5a61-4d2f-8e9b-3c1a7d6e2f10"

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleSession() *models.RefreshSession {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.RefreshSession{
		ID:          sid,
		UserID:      "u1",
		Fingerprint: "fp-1",
		CreatedOn:   now,
		ExpiresOn:   now.Add(30 * 24 * time.Hour),
	}
}

const insertQ = `(?s)^\s*INSERT\s+INTO\s+refresh_sessions\s*\(id,\s*user_id,\s*fingerprint,\s*created_on,\s*expires_on\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`
const selectQ = `(?s)^\s*SELECT\s+id,\s*user_id,\s*fingerprint,\s*created_on,\s*expires_on\s+FROM\s+refresh_sessions\s+WHERE\s+id\s*=\s*\$1\s*$`
const deleteQ = `(?s)^\s*DELETE\s+FROM\s+refresh_sessions\s+WHERE\s+id\s*=\s*\$1\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	s := sampleSession()
	mock.ExpectExec(insertQ).
		WithArgs(s.ID, s.UserID, s.Fingerprint, s.CreatedOn, s.ExpiresOn).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleSession())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	s := sampleSession()
	rows := sqlmock.NewRows([]string{"id", "user_id", "fingerprint", "created_on", "expires_on"}).
		AddRow(s.ID, s.UserID, s.Fingerprint, s.CreatedOn, s.ExpiresOn)
	mock.ExpectQuery(selectQ).WithArgs(sid).WillReturnRows(rows)

	got, err := repo.Find(context.Background(), sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != *s {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs(sid).WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), sid)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFind_MalformedID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Find(context.Background(), "garbage")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query: %v", err)
	}
}

func TestFind_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs(sid).WillReturnError(errors.New("db err"))

	_, err := repo.Find(context.Background(), sid)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_Existed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs(sid).WillReturnResult(sqlmock.NewResult(0, 1))

	existed, err := repo.Delete(context.Background(), sid)
	if err != nil || !existed {
		t.Fatalf("got existed=%v err=%v", existed, err)
	}
}

func TestDelete_Absent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs(sid).WillReturnResult(sqlmock.NewResult(0, 0))

	existed, err := repo.Delete(context.Background(), sid)
	if err != nil || existed {
		t.Fatalf("got existed=%v err=%v", existed, err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs(sid).WillReturnError(errors.New("db err"))

	_, err := repo.Delete(context.Background(), sid)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs(sid).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

	_, err := repo.Delete(context.Background(), sid)
	if err == nil {
		t.Fatal("expected error")
	}
}
