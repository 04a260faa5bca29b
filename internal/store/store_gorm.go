package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type kvEntry struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"type:text;not null"`
}

func (kvEntry) TableName() string { return "auth_state" }

// GormStore persists auth state in a relational single-row-per-key table.
// The sqlite dialector backs the CLI's on-disk credential file; postgres
// serves deployments where several workers share one credential set.
type GormStore struct {
	db *gorm.DB
}

func NewSQLiteStore(path string) (*GormStore, error) {
	return newGormStore(sqlite.Open(path))
}

func NewPostgresStore(dsn string) (*GormStore, error) {
	return newGormStore(postgres.Open(dsn))
}

func newGormStore(dialector gorm.Dialector) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate store schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var e kvEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("store get %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&kvEntry{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("store set %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&kvEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("store delete %s: %w", key, err)
	}
	return nil
}
