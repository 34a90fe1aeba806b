package lib

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib/models"
	"github.com/avoss/kinodigest/lib/render"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/avoss/kinodigest/lib/schedule"
	"go.uber.org/zap"
)

type configureNotifications struct {
	cfg        *config.Config
	log        *zap.Logger
	recipients *repos.RecipientRepo
	dispatcher rescheduler
}

// NotificationSettings carries one configuration update. Empty Schedule and
// Timezone fall back to the process defaults.
type NotificationSettings struct {
	ChannelID      string
	Schedule       string
	Enabled        bool
	IncludePoster  bool
	IncludeTrailer bool
	Timezone       string
	Locale         string
}

// ConfigureNotifications validates and persists a recipient's notification
// settings and moves the recipient between dispatcher jobs if its effective
// schedule changed.
func (svc *configureNotifications) ConfigureNotifications(ctx context.Context, destinationID string, settings NotificationSettings) (*models.Recipient, error) {
	recipient, err := svc.recipients.Find(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}
	oldSchedule := recipient.EffectiveSchedule()

	if settings.Schedule == "" {
		settings.Schedule = svc.cfg.DefaultNotificationSchedule
	}
	if err := schedule.Validate(settings.Schedule); err != nil {
		return nil, fmt.Errorf("%s is not a valid CRON pattern: %w", settings.Schedule, err)
	}

	if settings.Timezone == "" {
		settings.Timezone = svc.cfg.DefaultTimezone
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return nil, fmt.Errorf("%s is not a supported timezone: %w", settings.Timezone, err)
	}

	recipient.NotificationChannelID = sql.NullString{String: settings.ChannelID, Valid: settings.ChannelID != ""}
	recipient.NotificationSchedule = sql.NullString{String: settings.Schedule, Valid: true}
	recipient.NotificationsEnabled = settings.Enabled
	recipient.IncludePosterInNotifications = settings.IncludePoster
	recipient.IncludeTrailerInNotifications = settings.IncludeTrailer
	recipient.PreferredTimezone = settings.Timezone
	if settings.Locale != "" {
		recipient.PreferredLocale = string(render.ResolveLocale(settings.Locale))
	}

	if err := svc.recipients.Save(ctx, recipient); err != nil {
		return nil, err
	}

	newSchedule := recipient.EffectiveSchedule()
	svc.dispatcher.Reschedule(destinationID, oldSchedule, newSchedule)

	svc.log.Sugar().Infof("Updated notification settings for recipient %s", destinationID)
	return recipient, nil
}

// SetMentionRole assigns the role mentioned in digest announcements; an
// empty roleID clears it. Mention changes never affect scheduling.
func (svc *configureNotifications) SetMentionRole(ctx context.Context, destinationID, roleID string) (*models.Recipient, error) {
	recipient, err := svc.recipients.Find(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}

	recipient.MentionedRoleID = sql.NullString{String: roleID, Valid: roleID != ""}
	if err := svc.recipients.Save(ctx, recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}
