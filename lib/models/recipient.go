package models

import (
	"database/sql"

	"gorm.io/gorm"
)

// Recipient holds the notification settings of one destination community.
type Recipient struct {
	gorm.Model
	DestinationID string `gorm:"unique"`

	// Key into the sender registry, e.g. "chat" or "email".
	Platform string

	// Channel the digest thread is created under. If unset, the recipient is
	// skipped during dispatch.
	NotificationChannelID sql.NullString

	// CRON pattern used for posting notifications. If unset, the recipient is
	// skipped during dispatch.
	NotificationSchedule sql.NullString

	NotificationsEnabled          bool
	IncludePosterInNotifications  bool
	IncludeTrailerInNotifications bool

	PreferredLocale   string
	PreferredTimezone string

	MentionedRoleID sql.NullString
}

type Recipients []Recipient

// EffectiveSchedule returns the schedule the dispatcher should run this
// recipient on, or "" when the recipient is not eligible for notifications.
func (r *Recipient) EffectiveSchedule() string {
	if !r.NotificationsEnabled {
		return ""
	}
	if !r.NotificationChannelID.Valid || r.NotificationChannelID.String == "" {
		return ""
	}
	if !r.NotificationSchedule.Valid || r.NotificationSchedule.String == "" {
		return ""
	}
	return r.NotificationSchedule.String
}
