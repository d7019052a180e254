package auth

import (
	"context"
	"database/sql"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Admins(context.Context) AdminStore            { return &adminStore{db: s.db} }
func (s *PGStore) Personnel(context.Context) PersonnelStore     { return &personnelStore{db: s.db} }
func (s *PGStore) Recruitment(context.Context) RecruitmentStore { return &recruitmentStore{db: s.db} }

// Admin store ---------------------------------------------------------------
type adminStore struct{ db *sql.DB }

func (s *adminStore) FindByUsername(ctx context.Context, username string) (*AdminAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, email, password, role, coalesce(personnel_id, ''), is_active, created_at, coalesce(last_login, created_at)
		 from admin_users where username=$1`, username)
	var a AdminAccount
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Password, &a.Role, &a.PersonnelID, &a.IsActive, &a.CreatedAt, &a.LastLogin); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *adminStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `update admin_users set last_login=$2 where id=$1`, id, at)
	return err
}

// Personnel store -----------------------------------------------------------
type personnelStore struct{ db *sql.DB }

func (s *personnelStore) FindByUsername(ctx context.Context, username string) (*PersonnelAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, email, password, badge_number, first_name, last_name, "rank", designation, station,
		        is_admin, coalesce(admin_role, ''), coalesce(admin_level, ''),
		        can_manage_leaves, can_manage_personnel, can_approve_requests, can_approve_leaves,
		        is_active, created_at, coalesce(last_login, created_at)
		 from personnel where username=$1`, username)
	var p PersonnelAccount
	if err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.Password, &p.BadgeNumber, &p.FirstName, &p.LastName, &p.Rank, &p.Designation, &p.Station,
		&p.IsAdmin, &p.AdminRole, &p.AdminLevel,
		&p.CanManageLeaves, &p.CanManagePersonnel, &p.CanApproveRequests, &p.CanApproveLeaves,
		&p.IsActive, &p.CreatedAt, &p.LastLogin,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *personnelStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `update personnel set last_login=$2 where id=$1`, id, at)
	return err
}

// Recruitment store ---------------------------------------------------------
type recruitmentStore struct{ db *sql.DB }

func (s *recruitmentStore) FindByUsername(ctx context.Context, username string) (*RecruitmentAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password, full_name, coalesce("position", ''), candidate,
		        coalesce(stage, ''), coalesce(status, ''),
		        coalesce(schedule_date, ''), coalesce(schedule_location, ''), coalesce(schedule_notes, ''),
		        is_active, created_at, coalesce(last_login, created_at)
		 from recruitment_personnel where username=$1`, username)
	var r RecruitmentAccount
	if err := row.Scan(
		&r.ID, &r.Username, &r.Password, &r.FullName, &r.Position, &r.Candidate,
		&r.Stage, &r.Status,
		&r.ScheduleDate, &r.ScheduleLocation, &r.ScheduleNotes,
		&r.IsActive, &r.CreatedAt, &r.LastLogin,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *recruitmentStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `update recruitment_personnel set last_login=$2 where id=$1`, id, at)
	return err
}
