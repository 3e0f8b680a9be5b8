package model

// AddressBookEntry maps a chat user id to an SMS destination. The table is
// populated out of band; the bot only ever reads it.
type AddressBookEntry struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	MSISDN string `gorm:"column:msisdn;not null"`
}

// TableName keeps the table name aligned with the documented schema.
func (AddressBookEntry) TableName() string { return "address_book" }
