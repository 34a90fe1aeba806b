package lib

import (
	"context"
	"errors"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib/dispatch"
	"github.com/avoss/kinodigest/lib/models"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/avoss/kinodigest/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrMovieNotFound     = errors.New("movie not found")
)

// rescheduler is the slice of the dispatcher the configuration surface needs.
type rescheduler interface {
	Reschedule(recipientID, oldSchedule, newSchedule string)
}

type Service struct {
	cfg        *config.Config
	log        *zap.Logger
	movies     *repos.MovieRepo
	recipients *repos.RecipientRepo

	*onboardRecipient
	*configureNotifications
}

func NewService(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	movies *repos.MovieRepo,
	recipients *repos.RecipientRepo,
	senders senders.Registry,
	dispatcher *dispatch.Dispatcher,
) *Service {
	return &Service{
		cfg, log, movies, recipients,
		&onboardRecipient{cfg, log, recipients, senders, dispatcher},
		&configureNotifications{cfg, log, recipients, dispatcher},
	}
}

func (svc *Service) FindMovie(ctx context.Context, title string) (*models.Movie, error) {
	movie, err := svc.movies.FindByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}
	return movie, nil
}

func (svc *Service) FindRecipient(ctx context.Context, destinationID string) (*models.Recipient, error) {
	recipient, err := svc.recipients.Find(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}
	return recipient, nil
}
