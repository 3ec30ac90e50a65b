package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"accounts/api/internal/config"
)

type OutboxTrimmer interface {
	Trim(ctx context.Context) (int64, error)
}

type LoginArchiver interface {
	ArchivePreviousDay(ctx context.Context) (string, int, error)
}

type Sweeper interface {
	Sweep() int
}

// Scheduler runs housekeeping on cron specs with a seconds field.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.JobsConfig
	outbox   OutboxTrimmer
	archiver LoginArchiver
	sweeper  Sweeper
	log      zerolog.Logger
	timeout  time.Duration
}

func NewScheduler(cfg config.JobsConfig, outbox OutboxTrimmer, archiver LoginArchiver, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		outbox:   outbox,
		archiver: archiver,
		log:      log.With().Str("component", "jobs").Logger(),
		timeout:  5 * time.Minute,
	}
}

// WithSweeper adds a periodic sweep of idle rate-limit buckets.
func (s *Scheduler) WithSweeper(sw Sweeper) *Scheduler {
	s.sweeper = sw
	return s
}

// Start registers the jobs whose dependency is present. An empty spec
// disables a job.
func (s *Scheduler) Start() error {
	if s.outbox != nil && s.cfg.OutboxTrimSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.OutboxTrimSpec, s.trimOutbox); err != nil {
			return err
		}
	}
	if s.archiver != nil && s.cfg.LoginArchiveSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.LoginArchiveSpec, s.archiveLogins); err != nil {
			return err
		}
	}
	if s.sweeper != nil && s.cfg.RateLimitSweepSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.RateLimitSweepSpec, s.sweep); err != nil {
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) trimOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.outbox.Trim(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("trim outbox failed")
		return
	}
	s.log.Debug().Int64("removed", removed).Msg("outbox trimmed")
}

func (s *Scheduler) archiveLogins() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key, n, err := s.archiver.ArchivePreviousDay(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("archive logins failed")
		return
	}
	s.log.Info().Str("key", key).Int("events", n).Msg("logins archived")
}

func (s *Scheduler) sweep() {
	if removed := s.sweeper.Sweep(); removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("rate limit buckets swept")
	}
}
