package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pathakanu/remindbot/internal/model"
)

// AddressBook resolves chat user ids to SMS destinations. Entries are written
// out of band; the bot only reads.
type AddressBook struct {
	db *gorm.DB
}

// NewAddressBook wraps an opened database.
func NewAddressBook(db *gorm.DB) *AddressBook {
	return &AddressBook{db: db}
}

// Lookup returns the MSISDN for a chat user id, or ErrNotFound. A miss is a
// normal outcome, not a fault.
func (a *AddressBook) Lookup(userID string) (string, error) {
	var entry model.AddressBookEntry
	err := a.db.Where("user_id = ?", userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: no msisdn for %s", ErrNotFound, userID)
	}
	if err != nil {
		return "", fmt.Errorf("lookup msisdn: %w", err)
	}
	return entry.MSISDN, nil
}
