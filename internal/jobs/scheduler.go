package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"oneaccount/api/internal/repository"
)

// Scheduler runs the hourly role-registry integrity sweep. Role elevation is
// transactional, so the sweep should find nothing; anything it reports came
// from writes outside this service.
type Scheduler struct {
	cron  *cron.Cron
	roles *repository.RoleRepository
	log   zerolog.Logger
}

func NewScheduler(roles *repository.RoleRepository, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		roles: roles,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweepIntegrity); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepIntegrity() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dangling, orphans, err := s.roles.SweepOrphans(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("role integrity sweep failed")
		return
	}

	if dangling == 0 && orphans == 0 {
		s.log.Debug().Msg("role integrity sweep clean")
		return
	}

	s.log.Warn().
		Int("dangling_attachments", dangling).
		Int("orphan_records", orphans).
		Msg("role registry drift detected")
}
