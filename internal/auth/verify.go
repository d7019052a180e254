package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"stationhq.org/internal/obs"
)

// Verifier checks credentials against the class stores and produces
// principals. It owns no session state.
type Verifier struct {
	store Store
	now   func() time.Time
}

// VerifierOption configures Verifier behavior.
type VerifierOption func(*Verifier)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if fn != nil {
			v.now = fn
		}
	}
}

// NewVerifier constructs a Verifier over the given credential store.
func NewVerifier(store Store, opts ...VerifierOption) *Verifier {
	v := &Verifier{store: store, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify looks up exactly one record in the class table and confirms an
// exact password match and an active-account flag. On success it updates the
// record's last-login timestamp and returns the normalized principal with
// the effective class and role resolved.
//
// The stored secrets are compared verbatim. The upstream system keeps
// plaintext passwords; that comparison is reproduced here for behavioral
// parity and must be replaced with a salted slow hash before any
// production hardening.
func (v *Verifier) Verify(ctx context.Context, class AccountClass, username, password string) (Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Principal{}, ErrPasswordMismatch
	}
	switch class {
	case ClassAdmin:
		return v.verifyAdmin(ctx, username, password)
	case ClassPersonnel:
		return v.verifyPersonnel(ctx, username, password)
	case ClassRecruitment, ClassRecruitmentPersonnel:
		return v.verifyRecruitment(ctx, class, username, password)
	default:
		return Principal{}, ErrInvalidClass
	}
}

func (v *Verifier) verifyAdmin(ctx context.Context, username, password string) (Principal, error) {
	admins := v.store.Admins(ctx)
	acct, err := admins.FindByUsername(ctx, username)
	if err != nil {
		return Principal{}, wrapLookupErr(err)
	}
	if !acct.IsActive {
		return Principal{}, ErrInactive
	}
	if !passwordMatches(acct.Password, password) {
		return Principal{}, ErrPasswordMismatch
	}
	now := v.now().UTC()
	v.touch(ctx, admins.TouchLastLogin, acct.ID, now)

	role := acct.Role
	if role == "" {
		role = RoleAdmin
	}
	return Principal{
		ID:          acct.ID,
		Username:    acct.Username,
		DisplayName: acct.Username,
		Class:       ClassAdmin,
		Role:        role,
		Permissions: PermissionsForRole(role),
		IsAdmin:     role == RoleAdmin,
		LastLogin:   now,
		Admin: &AdminDetails{
			Email:       acct.Email,
			PersonnelID: acct.PersonnelID,
		},
	}, nil
}

func (v *Verifier) verifyPersonnel(ctx context.Context, username, password string) (Principal, error) {
	personnel := v.store.Personnel(ctx)
	acct, err := personnel.FindByUsername(ctx, username)
	if err != nil {
		return Principal{}, wrapLookupErr(err)
	}
	if !acct.IsActive {
		return Principal{}, ErrInactive
	}
	if !passwordMatches(acct.Password, password) {
		return Principal{}, ErrPasswordMismatch
	}
	now := v.now().UTC()
	v.touch(ctx, personnel.TouchLastLogin, acct.ID, now)

	role := RoleEmployee
	if acct.IsAdmin {
		role = acct.AdminRole
		if role == "" {
			role = RoleAdmin
		}
	}
	return Principal{
		ID:          acct.ID,
		Username:    acct.Username,
		DisplayName: strings.TrimSpace(acct.FirstName + " " + acct.LastName),
		Class:       ClassPersonnel,
		Role:        role,
		Permissions: PermissionsForRole(role),
		IsAdmin:     acct.IsAdmin,
		LastLogin:   now,
		Personnel: &PersonnelDetails{
			BadgeNumber:        acct.BadgeNumber,
			Rank:               acct.Rank,
			Designation:        acct.Designation,
			Station:            acct.Station,
			AdminRole:          acct.AdminRole,
			AdminLevel:         acct.AdminLevel,
			CanManageLeaves:    acct.CanManageLeaves,
			CanManagePersonnel: acct.CanManagePersonnel,
			CanApproveRequests: acct.CanApproveRequests,
			CanApproveLeaves:   acct.CanApproveLeaves,
		},
	}, nil
}

func (v *Verifier) verifyRecruitment(ctx context.Context, requested AccountClass, username, password string) (Principal, error) {
	recruitment := v.store.Recruitment(ctx)
	acct, err := recruitment.FindByUsername(ctx, username)
	if err != nil {
		return Principal{}, wrapLookupErr(err)
	}
	if !acct.IsActive {
		return Principal{}, ErrInactive
	}
	if !passwordMatches(acct.Password, password) {
		return Principal{}, ErrPasswordMismatch
	}
	now := v.now().UTC()
	v.touch(ctx, recruitment.TouchLastLogin, acct.ID, now)

	role := DeriveRole(acct.Position)
	effective := ReclassifyRecruitment(requested, role, acct.Position)
	return Principal{
		ID:          acct.ID,
		Username:    acct.Username,
		DisplayName: acct.FullName,
		Class:       effective,
		Role:        role,
		Permissions: PermissionsForRole(role),
		IsAdmin:     role == RoleAdmin,
		LastLogin:   now,
		Recruitment: &RecruitmentDetails{
			Position:         acct.Position,
			Candidate:        acct.Candidate,
			Stage:            acct.Stage,
			Status:           acct.Status,
			ScheduleDate:     acct.ScheduleDate,
			ScheduleLocation: acct.ScheduleLocation,
			ScheduleNotes:    acct.ScheduleNotes,
		},
	}, nil
}

// touch updates the last-login timestamp. Failures are logged and otherwise
// ignored; the login must not fail on a bookkeeping write.
func (v *Verifier) touch(ctx context.Context, fn func(context.Context, string, time.Time) error, id string, at time.Time) {
	if err := fn(ctx, id, at); err != nil {
		obs.LogEvent(map[string]any{
			"level": "warn",
			"msg":   "last-login update failed",
			"id":    id,
			"error": err.Error(),
		})
	}
}

func wrapLookupErr(err error) error {
	if IsCredentialFailure(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func passwordMatches(stored, supplied string) bool {
	if len(stored) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
