package auth

import (
	"context"
	"time"
)

// Store describes the credential tables the verifier reads. Each class maps
// to an independent external table; recruitment staff and candidates share
// one table.
type Store interface {
	Admins(ctx context.Context) AdminStore
	Personnel(ctx context.Context) PersonnelStore
	Recruitment(ctx context.Context) RecruitmentStore
}

// AdminStore manages admin credential records.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*AdminAccount, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// PersonnelStore manages personnel credential records.
type PersonnelStore interface {
	FindByUsername(ctx context.Context, username string) (*PersonnelAccount, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// RecruitmentStore manages the shared recruitment credential records.
type RecruitmentStore interface {
	FindByUsername(ctx context.Context, username string) (*RecruitmentAccount, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
