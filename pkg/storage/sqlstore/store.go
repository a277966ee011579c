package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one key/value row in kv_records.
type Record struct {
	Key       string    `gorm:"column:record_key;primaryKey"`
	Value     string    `gorm:"column:record_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Record) TableName() string { return "kv_records" }

// Store persists records through GORM. The table is created by pkg/migrate.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("record_key = ?", key).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read record %q: %w", key, err)
	}
	return []byte(rec.Value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	rec := Record{Key: key, Value: string(value), UpdatedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"record_value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("write record %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("record_key = ?", key).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}
