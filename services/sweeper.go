package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"movieflix/repository"
)

// Sweeper periodically purges expired passcodes.
type Sweeper struct {
	passcodes repository.PasscodeRepository
	interval  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewSweeper(passcodes repository.PasscodeRepository, interval time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{passcodes: passcodes, interval: interval, log: log, now: time.Now}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sweeper panic recovered", zap.Any("panic", r))
		}
	}()
	if _, err := s.SweepOnce(ctx); err != nil {
		s.log.Warn("passcode sweep failed", zap.Error(err))
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.passcodes.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired passcodes purged", zap.Int64("count", n))
	}
	return n, nil
}
