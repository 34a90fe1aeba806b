package repos

import (
	"context"
	"errors"

	"github.com/avoss/kinodigest/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecipientRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecipientRepo(db *gorm.DB, log *zap.Logger) *RecipientRepo {
	return &RecipientRepo{db, log}
}

// FindEligible returns destination ids grouped by schedule for every
// recipient with notifications enabled, a channel and a schedule. This feeds
// the dispatcher's bootstrap.
func (r *RecipientRepo) FindEligible(ctx context.Context) (map[string][]string, error) {
	var recipients models.Recipients
	tx := r.db.WithContext(ctx).
		Where("notifications_enabled = ?", true).
		Where("notification_channel_id IS NOT NULL AND notification_channel_id != ''").
		Where("notification_schedule IS NOT NULL AND notification_schedule != ''").
		Find(&recipients)
	if err := tx.Error; err != nil {
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, recipient := range recipients {
		schedule := recipient.NotificationSchedule.String
		grouped[schedule] = append(grouped[schedule], recipient.DestinationID)
	}
	return grouped, nil
}

// Find returns (nil, nil) when the destination is unknown.
func (r *RecipientRepo) Find(ctx context.Context, destinationID string) (*models.Recipient, error) {
	recipient := &models.Recipient{}
	tx := r.db.WithContext(ctx).
		Where("destination_id = ?", destinationID).
		First(recipient)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return recipient, nil
}

func (r *RecipientRepo) Create(ctx context.Context, recipient *models.Recipient) error {
	return r.db.WithContext(ctx).Create(recipient).Error
}

func (r *RecipientRepo) Save(ctx context.Context, recipient *models.Recipient) error {
	return r.db.WithContext(ctx).Save(recipient).Error
}

func (r *RecipientRepo) Delete(ctx context.Context, destinationID string) error {
	return r.db.WithContext(ctx).
		Where("destination_id = ?", destinationID).
		Delete(&models.Recipient{}).Error
}
