package scraper

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/avoss/kinodigest/lib/schedule"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scraper periodically pulls the cinema's programme page, digs the embedded
// JSON payload out of it and upserts attributes and movies.
type Scraper struct {
	cfg        *config.Config
	log        *zap.Logger
	transport  http.RoundTripper
	attributes *repos.AttributeRepo
	movies     *repos.MovieRepo

	runner *cron.Cron
}

func NewScraper(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	transport http.RoundTripper,
	attributes *repos.AttributeRepo,
	movies *repos.MovieRepo,
) *Scraper {
	s := &Scraper{cfg, log, transport, attributes, movies, schedule.NewRunner(log)}

	if _, err := s.runner.AddFunc(cfg.ScraperSchedule, s.runScheduled); err != nil {
		// The scraper keeps running without a trigger so the rest of the
		// process stays up; stored movie data just goes stale.
		log.Sugar().Errorw("Failed to register scraper schedule, movie data will not refresh",
			"schedule", cfg.ScraperSchedule, "err", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-s.runner.Stop().Done()
			return nil
		},
	})

	return s
}

func (s *Scraper) runScheduled() {
	log := s.log.Sugar().With("run_id", uuid.NewString())
	log.Info("Running scheduled extraction cycle")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunCycle(ctx); err != nil {
		log.Errorw("Extraction cycle failed", "err", err)
	}
}

// RunCycle performs one extraction cycle. Fetch, payload location and JSON
// parsing abort the whole cycle; attribute and movie extraction each run in
// their own error boundary so one cannot block the other.
func (s *Scraper) RunCycle(ctx context.Context) error {
	payload, err := s.fetchPayload(ctx)
	if err != nil {
		return err
	}

	apiData, ok := payload["apiData"].(map[string]any)
	if !ok {
		return errors.New("no usable apiData object in scraped payload")
	}

	s.extractAttributes(ctx, apiData)
	s.extractMovies(ctx, apiData)
	return nil
}
