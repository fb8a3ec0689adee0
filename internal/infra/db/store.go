package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

type Store struct {
	DB *gorm.DB
}

// NewStore opens Postgres when a DSN is configured. Without one the store
// runs in no-db mode and DB stays nil.
func NewStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PostgresDSN == "" {
		logger.Info("POSTGRES_DSN not set; starting in no-db mode",
			slog.String("event", "db.disabled"),
			slog.String("module", "db"),
		)
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{DB: gdb}
	if cfg.DBAutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("migrations applied", slog.String("event", "db.migrated"), slog.String("module", "db"))
	}
	return store, nil
}

func (s *Store) Available() bool {
	return s != nil && s.DB != nil
}

func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
