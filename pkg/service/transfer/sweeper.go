package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashnoteio/cashnote/pkg/repository"
)

// Sweeper periodically marks overdue pending transfers failed. Completion
// past expiry is already rejected at commit time; the sweeper only tidies up
// abandoned rows so they stop looking in-flight.
type Sweeper struct {
	uow      repository.UnitOfWork
	logger   *slog.Logger
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(uow repository.UnitOfWork, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		uow:      uow,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to halt.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep runs one pass immediately and reports how many transfers were failed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	var swept int64
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransferRepository()
		if err != nil {
			return err
		}
		swept, err = repo.FailExpired(time.Now())
		return err
	})
	return swept, err
}

func (s *Sweeper) sweep(ctx context.Context) {
	swept, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("expired transfer sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.logger.Info("expired pending transfers failed", "count", swept)
	}
}
