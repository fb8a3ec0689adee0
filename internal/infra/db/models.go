package db

import "time"

type AccountModel struct {
	ID            string    `gorm:"primaryKey"`
	Email         string    `gorm:"not null"`
	Role          string    `gorm:"not null"`
	AccountStatus string    `gorm:"column:account_status;not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (AccountModel) TableName() string {
	return "accounts"
}
