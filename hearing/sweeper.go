package hearing

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type lapser interface {
	SweepLapsed(ctx context.Context) (int64, error)
}

// Sweeper periodically lapses hearings nobody recorded an outcome for.
type Sweeper struct {
	cron *cron.Cron
	svc  lapser
	spec string
}

func NewSweeper(svc lapser, spec string) *Sweeper {
	if spec == "" {
		spec = "@hourly"
	}
	return &Sweeper{
		cron: cron.New(cron.WithLocation(time.UTC)),
		svc:  svc,
		spec: spec,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	zap.S().Infow("hearing sweeper started", "spec", s.spec)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("hearing sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.svc.SweepLapsed(ctx)
	if err != nil {
		zap.S().Errorw("failed to lapse hearings", "error", err)
		return
	}
	if n > 0 {
		zap.S().Infow("lapsed stale hearings", "count", n)
	}
}
