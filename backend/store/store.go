package store

import (
	"errors"

	"jactutor/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("key not found")

// KV is the injected key-value capability used for profile and schedule blobs
// (the browser-storage replacement). Implementations must be safe for
// concurrent use.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

type gormKV struct {
	db *gorm.DB
}

// New returns a KV backed by the store_entries table.
func New(db *gorm.DB) KV {
	return &gormKV{db: db}
}

func (s *gormKV) Get(key string) (string, error) {
	var entry models.StoreEntry
	if err := s.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return entry.Value, nil
}

func (s *gormKV) Set(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.StoreEntry{Key: key, Value: value}).Error
}

func (s *gormKV) Remove(key string) error {
	return s.db.Where("key = ?", key).Delete(&models.StoreEntry{}).Error
}
