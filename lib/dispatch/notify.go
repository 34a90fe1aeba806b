package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/avoss/kinodigest/lib/models"
	"github.com/avoss/kinodigest/lib/render"
	"github.com/avoss/kinodigest/senders"
	"go.uber.org/zap"
)

// Command names hinted at in the announcement message.
const (
	infoCommand         = "movie-info"
	performancesCommand = "movie-performances"
	mentionCommand      = "mention-me"
)

const (
	livenessInterval = 5 * time.Second
	sendTimeout      = 10 * time.Second
)

// notifyRecipient delivers one full digest to one recipient. Every failure in
// here is recoverable: it is logged and either skips the recipient or counts
// against the one message that failed, never against sibling recipients.
func (d *Dispatcher) notifyRecipient(ctx context.Context, log *zap.SugaredLogger, recipientID string, movies []models.DigestMovie, truncated bool) {
	log = log.With("recipient", recipientID)

	recipient, err := d.recipients.Find(ctx, recipientID)
	if err != nil {
		log.Errorw("Failed to load recipient configuration, skipping", "err", err)
		return
	}
	if recipient == nil {
		// Offboarded since the tick started.
		log.Warn("Recipient configuration not found, skipping")
		return
	}
	if !recipient.NotificationChannelID.Valid || recipient.NotificationChannelID.String == "" {
		log.Warn("Recipient has no notification channel, skipping")
		return
	}
	sender, ok := d.senders[recipient.Platform]
	if !ok {
		log.Warnw("Unsupported recipient platform, skipping", "platform", recipient.Platform)
		return
	}

	locale := render.ResolveLocale(recipient.PreferredLocale)
	tz := d.loadTimezone(recipient.PreferredTimezone)

	log.Info("Starting new digest destination in channel")
	dest, err := sender.CreateDestination(ctx, recipient.NotificationChannelID.String, d.renderer.ThreadName(locale, time.Now()))
	if err != nil {
		log.Errorw("Failed to create digest destination, skipping", "err", err)
		return
	}
	log = log.With("destination", dest.ID)

	stopLiveness := d.startLiveness(ctx, log, sender, dest)
	defer stopLiveness()

	announcement, err := d.renderer.RenderAnnouncement(locale, render.Announcement{
		MentionedRoleID:       recipient.MentionedRoleID.String,
		WebsiteURL:            d.cfg.SourceURL,
		PerformancesTruncated: truncated,
		InfoCommand:           infoCommand,
		PerformancesCommand:   performancesCommand,
		MentionCommand:        mentionCommand,
	})
	if err != nil {
		log.Errorw("Failed to render announcement, skipping", "err", err)
		return
	}
	if err := d.send(ctx, sender, dest, announcement, nil); err != nil {
		log.Errorw("Failed to send announcement, skipping", "err", err)
		return
	}

	log.Infof("Sending %d notifications to destination", len(movies))
	sent, failed := 0, 0
	for _, movie := range movies {
		content, err := d.renderer.RenderMovie(locale, movie, recipient.IncludeTrailerInNotifications, tz)
		if err != nil {
			log.Errorw("Failed to render movie notification", "title", movie.Title, "err", err)
			failed++
			continue
		}

		var attachments []senders.Attachment
		if recipient.IncludePosterInNotifications && movie.PosterURL != "" {
			attachments = append(attachments, senders.Attachment{
				Title:    movie.Title,
				URL:      movie.PosterURL,
				ImageURL: movie.PosterURL,
			})
		}

		if err := d.send(ctx, sender, dest, content, attachments); err != nil {
			log.Errorw("Failed to send movie notification", "title", movie.Title, "err", err)
			failed++
		} else {
			sent++
		}
	}

	if failed == 0 {
		log.Infof("Successfully sent %d movie notifications", sent)
	} else {
		log.Warnf("Successfully sent %d movie notifications, failed to send %d notifications", sent, failed)
	}
}

func (d *Dispatcher) send(ctx context.Context, sender senders.Sender, dest *senders.Destination, content string, attachments []senders.Attachment) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return sender.Send(ctx, dest, content, attachments)
}

// startLiveness emits a periodic typing signal until the returned stop
// function runs. Stop is idempotent and must be called on every exit path.
func (d *Dispatcher) startLiveness(ctx context.Context, log *zap.SugaredLogger, sender senders.Sender, dest *senders.Destination) func() {
	stop := make(chan struct{})

	go func() {
		ticker := time.NewTicker(livenessInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				log.Debug("Sending liveness signal to destination")
				sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
				if err := sender.SendLiveness(sendCtx, dest); err != nil {
					log.Errorw("Failed to send liveness signal", "err", err)
				}
				cancel()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}

func (d *Dispatcher) loadTimezone(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(d.cfg.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}
