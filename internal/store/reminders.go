// Package store implements the persistence layer for reminders and the
// read-only address book, backed by GORM over SQLite.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pathakanu/remindbot/internal/model"
)

// ErrDuplicateID is returned when a reminder id collides with an existing row.
var ErrDuplicateID = errors.New("reminder id already exists")

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Reminders is the durable table of pending reminders.
type Reminders struct {
	db *gorm.DB
}

// NewReminders wraps an opened database.
func NewReminders(db *gorm.DB) *Reminders {
	return &Reminders{db: db}
}

// Add inserts a reminder with Sent left false. A primary-key collision is
// reported as ErrDuplicateID.
func (s *Reminders) Add(r *model.Reminder) error {
	r.Sent = false
	if err := s.db.Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// DueBefore returns every unsent reminder due at or before now, in no
// particular order.
func (s *Reminders) DueBefore(now time.Time) ([]model.Reminder, error) {
	var out []model.Reminder
	err := s.db.
		Where("due_ts <= ? AND sent = ?", now.UTC().Unix(), false).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	return out, nil
}

// MarkSent flips a reminder's sent flag. It is idempotent, and a missing id
// is treated as success: either way the row will never be delivered again.
func (s *Reminders) MarkSent(id string) error {
	err := s.db.Model(&model.Reminder{}).
		Where("id = ?", id).
		Update("sent", true).Error
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
