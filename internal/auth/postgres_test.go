package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAdminStoreFindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("from admin_users where username=").
		WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "personnel_id", "is_active", "created_at", "last_login"}).
			AddRow("a1", "root", "root@example.org", "pw", "admin", "", true, created, created))

	store := NewPGStore(db)
	acct, err := store.Admins(context.Background()).FindByUsername(context.Background(), "root")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if acct.ID != "a1" || acct.Role != "admin" || !acct.IsActive {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminStoreFindMissingMapsToErrNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("from admin_users where username=").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "personnel_id", "is_active", "created_at", "last_login"}))

	store := NewPGStore(db)
	_, err = store.Admins(context.Background()).FindByUsername(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecruitmentStoreFindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("from recruitment_personnel where username=").
		WithArgs("applicant").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "password", "full_name", "position", "candidate",
			"stage", "status", "schedule_date", "schedule_location", "schedule_notes",
			"is_active", "created_at", "last_login",
		}).AddRow("r1", "applicant", "pw", "Sam Cruz", "Applicant", true,
			"interview", "pending", "2026-04-01", "HQ Room 2", "",
			true, created, created))

	store := NewPGStore(db)
	acct, err := store.Recruitment(context.Background()).FindByUsername(context.Background(), "applicant")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if !acct.Candidate || acct.Stage != "interview" || acct.ScheduleLocation != "HQ Room 2" {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("update personnel set last_login=").
		WithArgs("p1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.Personnel(context.Background()).TouchLastLogin(context.Background(), "p1", at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
