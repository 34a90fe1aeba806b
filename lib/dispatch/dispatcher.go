package dispatch

import (
	"context"
	"sync"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib/render"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/avoss/kinodigest/lib/schedule"
	"github.com/avoss/kinodigest/senders"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// jobScheduler is the slice of the cron runner the dispatcher needs; tests
// substitute it.
type jobScheduler interface {
	AddJob(spec string, cmd cron.Job) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

// Dispatcher owns one recurring job per distinct cron schedule currently in
// use across all recipients. Attaching and detaching recipients never
// restarts a job; mutations become visible on the job's next tick.
type Dispatcher struct {
	cfg        *config.Config
	log        *zap.Logger
	movies     *repos.MovieRepo
	recipients *repos.RecipientRepo
	renderer   *render.Renderer
	senders    senders.Registry

	runner jobScheduler

	mu   sync.Mutex
	jobs map[string]*scheduleJob
}

type scheduleJob struct {
	dispatcher *Dispatcher
	schedule   string
	entryID    cron.EntryID

	mu           sync.Mutex
	recipientIDs map[string]struct{}
}

func (j *scheduleJob) Run() {
	j.dispatcher.tick(j)
}

func (j *scheduleJob) add(recipientID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recipientIDs[recipientID] = struct{}{}
}

func (j *scheduleJob) remove(recipientID string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.recipientIDs[recipientID]; !ok {
		return false
	}
	delete(j.recipientIDs, recipientID)
	return true
}

func (j *scheduleJob) size() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.recipientIDs)
}

// snapshot freezes the recipient set at tick start so a concurrent
// Reschedule cannot mutate the set mid-iteration.
func (j *scheduleJob) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	ids := make([]string, 0, len(j.recipientIDs))
	for id := range j.recipientIDs {
		ids = append(ids, id)
	}
	return ids
}

func NewDispatcher(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	movies *repos.MovieRepo,
	recipients *repos.RecipientRepo,
	renderer *render.Renderer,
	senders senders.Registry,
) *Dispatcher {
	runner := schedule.NewRunner(log)
	d := &Dispatcher{
		cfg:        cfg,
		log:        log,
		movies:     movies,
		recipients: recipients,
		renderer:   renderer,
		senders:    senders,
		runner:     runner,
		jobs:       map[string]*scheduleJob{},
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := d.Bootstrap(ctx); err != nil {
				return err
			}
			runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-runner.Stop().Done()
			return nil
		},
	})

	return d
}

// Bootstrap creates one job per distinct schedule found across all eligible
// recipients.
func (d *Dispatcher) Bootstrap(ctx context.Context) error {
	d.log.Info("Setting up scheduled jobs for all recipients")
	grouped, err := d.recipients.FindEligible(ctx)
	if err != nil {
		return err
	}
	d.log.Sugar().Infof("Found %d jobs to register", len(grouped))

	d.mu.Lock()
	defer d.mu.Unlock()
	for spec, recipientIDs := range grouped {
		d.addJob(spec, recipientIDs...)
	}
	return nil
}

// Reschedule moves a recipient between schedules. Either side may be "" when
// there was no old schedule or there should be no new one. Takes effect on
// the next tick of the affected jobs.
func (d *Dispatcher) Reschedule(recipientID, oldSchedule, newSchedule string) {
	log := d.log.Sugar().With("recipient", recipientID, "old_schedule", oldSchedule, "new_schedule", newSchedule)
	if oldSchedule == newSchedule {
		log.Info("Old and new schedules are identical, nothing to do")
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if oldSchedule != "" {
		if job, ok := d.jobs[oldSchedule]; ok {
			if job.remove(recipientID) {
				log.Info("Removed recipient from old job, takes effect on next scheduled run")
			} else {
				log.Warn("Recipient not found in old job, skipping removal")
			}
			if job.size() == 0 {
				d.runner.Remove(job.entryID)
				delete(d.jobs, oldSchedule)
				log.Info("Old job has no recipients left, tore it down")
			}
		} else {
			log.Warn("No job found for old schedule, skipping removal")
		}
	}

	if newSchedule != "" {
		if job, ok := d.jobs[newSchedule]; ok {
			job.add(recipientID)
			log.Info("Added recipient to existing job, takes effect on next scheduled run")
		} else {
			d.addJob(newSchedule, recipientID)
		}
	}
}

// addJob registers a new cron entry; the caller must hold d.mu. Registration
// failure leaves the recipients unscheduled and is never fatal.
func (d *Dispatcher) addJob(spec string, recipientIDs ...string) {
	log := d.log.Sugar().With("schedule", spec)

	ids := make(map[string]struct{}, len(recipientIDs))
	for _, id := range recipientIDs {
		ids[id] = struct{}{}
	}
	job := &scheduleJob{dispatcher: d, schedule: spec, recipientIDs: ids}

	entryID, err := d.runner.AddJob(spec, job)
	if err != nil {
		log.Errorw("Failed to register job. Recipients will not receive any notifications", "err", err)
		return
	}
	job.entryID = entryID
	d.jobs[spec] = job
	log.Info("Job created successfully")
}

func (d *Dispatcher) tick(job *scheduleJob) {
	log := d.log.Sugar().With("schedule", job.schedule, "run_id", uuid.NewString())
	ctx := context.Background()

	log.Info("Fetching movie data from database")
	movies, truncated, err := d.movies.FindDigest(ctx)
	if err != nil {
		log.Errorw("Failed to load movie digest", "err", err)
		return
	}
	if len(movies) == 0 {
		log.Info("No movies to send notifications for, skipping")
		return
	}

	log.Infof("Found %d movies to send notifications for", len(movies))
	for _, recipientID := range job.snapshot() {
		d.notifyRecipient(ctx, log, recipientID, movies, truncated)
	}
}
