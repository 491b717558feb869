package bot

import (
	"context"
	"log"
	"sync"

	"vote-role-bot/scanner"
)

// Scheduler owns the background tasks.
type Scheduler struct {
	sweeper *scanner.VoteExpirySweeper
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// NewScheduler creates a new scheduler.
func NewScheduler(sweeper *scanner.VoteExpirySweeper) *Scheduler {
	return &Scheduler{sweeper: sweeper}
}

// Start begins all scheduled tasks.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sweeper.Run(ctx)
	}()
}

// Stop terminates all scheduled tasks and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		log.Println("Stopping scheduler...")
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		log.Println("Scheduler stopped.")
	})
}
