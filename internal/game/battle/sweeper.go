package battle

import (
	"time"

	"go.uber.org/zap"
)

// IdleSource is the sweep entry point the Sweeper drives. The orchestrator
// wraps the engine's sweep with outcome persistence, so the Sweeper talks to
// whichever layer is wired in.
type IdleSource interface {
	SweepIdle() []*Battle
}

// Sweeper periodically ends idle battles. It satisfies the server lifecycle
// Service contract.
type Sweeper struct {
	source   IdleSource
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper returns a sweeper that runs the idle check every interval.
//
// Precondition: source and logger must not be nil; interval must be > 0.
func NewSweeper(source IdleSource, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		panic("battle.NewSweeper: interval must be > 0")
	}
	return &Sweeper{
		source:   source,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
//
// Postcondition: SweepIdle runs once per interval until Stop is called.
func (s *Sweeper) Start() error {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				for _, b := range s.source.SweepIdle() {
					s.logger.Info("swept idle battle",
						zap.String("battle_id", b.ID),
						zap.Int("turns", b.TurnNumber))
				}
			}
		}
	}()
	return nil
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
