package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateEntry is the relational representation of one user state field.
type StateEntry struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Field     string    `gorm:"column:field;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the goose-managed table.
func (StateEntry) TableName() string {
	return "state_entries"
}

// GormStore keeps per-user state in a relational table, for deployments
// that prefer the primary database over Redis.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore binds the store to the provided GORM connection.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm connection required")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, userID, field string) (string, error) {
	var entry StateEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND field = ?", userID, field).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return entry.Value, nil
}

func (s *GormStore) Set(ctx context.Context, userID, field, value string) error {
	entry := StateEntry{UserID: userID, Field: field, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "field"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *GormStore) Delete(ctx context.Context, userID, field string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND field = ?", userID, field).
		Delete(&StateEntry{}).Error
}
