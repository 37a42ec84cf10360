package models

import "gorm.io/gorm"

// StoreEntry backs the key-value store used for profile and schedule blobs.
type StoreEntry struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string
}
