package lib

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib/models"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/avoss/kinodigest/lib/render"
	"github.com/avoss/kinodigest/senders"
	"go.uber.org/zap"
)

type onboardRecipient struct {
	cfg        *config.Config
	log        *zap.Logger
	recipients *repos.RecipientRepo
	senders    senders.Registry
	dispatcher rescheduler
}

// OnboardRecipient creates a recipient configuration with defaults:
// notifications stay disabled until configured. Onboarding an already-known
// destination returns the existing configuration.
func (svc *onboardRecipient) OnboardRecipient(ctx context.Context, destinationID, platform string) (*models.Recipient, error) {
	existing, err := svc.recipients.Find(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if platform == "" {
		platform = "chat"
	}
	if _, ok := svc.senders[platform]; !ok {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}

	recipient := &models.Recipient{
		DestinationID:        destinationID,
		Platform:             platform,
		NotificationSchedule: sql.NullString{String: svc.cfg.DefaultNotificationSchedule, Valid: true},
		PreferredLocale:      string(render.LocaleEnglish),
		PreferredTimezone:    svc.cfg.DefaultTimezone,
	}
	if err := svc.recipients.Create(ctx, recipient); err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Onboarded recipient %s on platform %s", destinationID, platform)
	return recipient, nil
}

// OffboardRecipient deletes the configuration and detaches the recipient
// from its dispatcher job. Unknown destinations are a no-op.
func (svc *onboardRecipient) OffboardRecipient(ctx context.Context, destinationID string) error {
	recipient, err := svc.recipients.Find(ctx, destinationID)
	if err != nil {
		return err
	}
	if recipient == nil {
		return nil
	}

	oldSchedule := recipient.EffectiveSchedule()
	if err := svc.recipients.Delete(ctx, destinationID); err != nil {
		return err
	}

	svc.dispatcher.Reschedule(destinationID, oldSchedule, "")
	svc.log.Sugar().Infof("Offboarded recipient %s", destinationID)
	return nil
}
