package model

import "time"

// Reminder is one pending SMS notification. Rows are never deleted: the
// dispatcher flips Sent and later scans skip the tombstone, which keeps
// delivery idempotent across a crash mid-dispatch.
type Reminder struct {
	ID          string `gorm:"primaryKey;size:20"`
	DueTS       int64  `gorm:"column:due_ts;not null;index:reminders_ts,priority:1"`
	Destination string `gorm:"type:text;not null"`
	Text        string `gorm:"type:text;not null"`
	Sent        bool   `gorm:"not null;index:reminders_ts,priority:2"`
}

// TableName keeps the table name aligned with the documented schema.
func (Reminder) TableName() string { return "reminders" }

// Due returns the due instant as a UTC time with second precision.
func (r *Reminder) Due() time.Time {
	return time.Unix(r.DueTS, 0).UTC()
}

// SetDue stores the due instant as seconds since the unix epoch.
func (r *Reminder) SetDue(t time.Time) {
	r.DueTS = t.UTC().Unix()
}
