// Package history persists the prompts a user has submitted, so past
// requests can be reviewed with the `history` runtime command.
package history

import (
	"slices"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type Manager struct {
	db *gorm.DB
}

type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	Prompt string
}

func NewManager(dbFilePath string) (*Manager, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	return &Manager{
		db: db,
	}, nil
}

// Add records a submitted prompt.
func (m *Manager) Add(prompt string) (*Entry, error) {
	entry := Entry{
		Prompt: prompt,
	}

	result := m.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// Recent returns up to limit entries in chronological order, oldest first.
func (m *Manager) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	result := m.db.Order("created_at desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}

// Search returns entries whose prompt contains query, most recent first.
func (m *Manager) Search(query string, limit int) ([]Entry, error) {
	var entries []Entry
	result := m.db.Where("prompt LIKE ?", "%"+query+"%").
		Order("created_at desc").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}
