package domain

import (
	"context"
	"time"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "Active"
	AccountStatusBanned    AccountStatus = "Banned"
	AccountStatusSuspended AccountStatus = "Suspended"
	AccountStatusPending   AccountStatus = "Pending"
)

type AccountRecord struct {
	ID        string
	Email     string
	Role      Role
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdentityStore returns ErrNotFound when no record exists for id.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (AccountRecord, error)
}

type StatusPolicy interface {
	Eligible(ctx context.Context, record AccountRecord) (bool, error)
}

// BannedOnlyPolicy admits every status except Banned, including statuses
// introduced after this code was written.
type BannedOnlyPolicy struct{}

func (BannedOnlyPolicy) Eligible(_ context.Context, record AccountRecord) (bool, error) {
	return record.Status != AccountStatusBanned, nil
}
