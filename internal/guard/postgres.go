package guard

import (
	"context"
	"database/sql"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store over the login_security table.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Find(ctx context.Context, originKey string) (State, error) {
	row := s.db.QueryRowContext(ctx,
		`select ip_address, failed_attempts, lockout_count, temp_until, brute_force_until, last_attempt
		 from login_security where ip_address=$1`, originKey)
	var (
		st         State
		tempUntil  sql.NullTime
		bruteUntil sql.NullTime
	)
	if err := row.Scan(&st.OriginKey, &st.FailedAttempts, &st.LockoutCount, &tempUntil, &bruteUntil, &st.LastAttempt); err != nil {
		if err == sql.ErrNoRows {
			return State{}, ErrNotFound
		}
		return State{}, err
	}
	if tempUntil.Valid {
		t := tempUntil.Time
		st.TempLockUntil = &t
	}
	if bruteUntil.Valid {
		t := bruteUntil.Time
		st.BruteForceUntil = &t
	}
	return st, nil
}

func (s *PGStore) Create(ctx context.Context, st State) error {
	_, err := s.db.ExecContext(ctx,
		`insert into login_security(ip_address, failed_attempts, lockout_count, temp_until, brute_force_until, last_attempt)
		 values($1,$2,$3,$4,$5,$6) on conflict (ip_address) do nothing`,
		st.OriginKey, st.FailedAttempts, st.LockoutCount, nullable(st.TempLockUntil), nullable(st.BruteForceUntil), st.LastAttempt,
	)
	return err
}

func (s *PGStore) Update(ctx context.Context, st State) error {
	_, err := s.db.ExecContext(ctx,
		`update login_security
		 set failed_attempts=$2, lockout_count=$3, temp_until=$4, brute_force_until=$5, last_attempt=$6
		 where ip_address=$1`,
		st.OriginKey, st.FailedAttempts, st.LockoutCount, nullable(st.TempLockUntil), nullable(st.BruteForceUntil), st.LastAttempt,
	)
	return err
}

func nullable(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
