package db

import (
	"context"
	"errors"
	"time"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID issues a single primary-key read. The record is never modified here.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (domain.AccountRecord, error) {
	if r.db == nil {
		return domain.AccountRecord{}, errDBUnavailable
	}
	if id == "" {
		return domain.AccountRecord{}, domain.ErrNotFound
	}
	var model AccountModel
	err := r.db.WithContext(ctx).Take(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AccountRecord{}, domain.ErrNotFound
		}
		return domain.AccountRecord{}, err
	}
	return toAccountRecord(model), nil
}

// Upsert is used by provisioning and tests; the gate never writes.
func (r *AccountRepository) Upsert(ctx context.Context, record domain.AccountRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	now := time.Now().UTC()
	model := AccountModel{
		ID:            record.ID,
		Email:         record.Email,
		Role:          string(record.Role),
		AccountStatus: string(record.Status),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     now,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	if model.Role == "" {
		model.Role = string(domain.RoleUser)
	}
	if model.AccountStatus == "" {
		model.AccountStatus = string(domain.AccountStatusActive)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "role", "account_status", "updated_at"}),
	}).Create(&model).Error
}

func toAccountRecord(model AccountModel) domain.AccountRecord {
	return domain.AccountRecord{
		ID:        model.ID,
		Email:     model.Email,
		Role:      domain.Role(model.Role),
		Status:    domain.AccountStatus(model.AccountStatus),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
