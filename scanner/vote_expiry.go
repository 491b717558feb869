package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"vote-role-bot/metrics"
	"vote-role-bot/model"
	"vote-role-bot/utils"
)

var ErrSweepInProgress = errors.New("sweep already in progress")

// ExpiredVoteStore is the part of the vote store the sweeper needs.
type ExpiredVoteStore interface {
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
	Delete(ctx context.Context, userID string) error
}

// SweepResult holds the statistics of one sweep pass.
type SweepResult struct {
	Total        int
	Revoked      int
	NotFound     int
	Failed       int
	NoticeFailed int
	DeleteFailed int
	Errors       []string
	StartTime    time.Time
	EndTime      time.Time
}

// Duration returns the time taken by the pass.
func (r *SweepResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// SweeperDeps holds the parameters for NewVoteExpirySweeper.
type SweeperDeps struct {
	Store         ExpiredVoteStore
	Actuator      model.RoleActuator
	Interval      time.Duration // defaults to 1 minute
	Logger        *log.Logger
	ChannelLogger *utils.ChannelLogger
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// VoteExpirySweeper revokes the voter role once a vote has expired and
// forgets the vote. At most one pass runs at a time; a tick that arrives
// while a pass is in progress is dropped.
type VoteExpirySweeper struct {
	store    ExpiredVoteStore
	actuator model.RoleActuator
	interval time.Duration
	logger   *log.Logger
	channel  *utils.ChannelLogger
	metrics  *metrics.Metrics
	now      func() time.Time

	running  sync.Mutex
	inflight sync.WaitGroup
}

func NewVoteExpirySweeper(d SweeperDeps) *VoteExpirySweeper {
	interval := d.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &VoteExpirySweeper{
		store:    d.Store,
		actuator: d.Actuator,
		interval: interval,
		logger:   d.Logger,
		channel:  d.ChannelLogger,
		metrics:  d.Metrics,
		now:      now,
	}
}

// Run ticks until ctx is cancelled, starting a pass on every tick, then
// waits for the pass in flight to finish.
func (s *VoteExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("vote expiry sweeper started (interval=%s)", s.interval)
	// In-flight passes are never aborted, only waited for.
	passCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			s.inflight.Wait()
			s.logger.Printf("vote expiry sweeper stopped")
			return
		case <-ticker.C:
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.Sweep(passCtx)
			}()
		}
	}
}

// Sweep runs one pass. It returns ErrSweepInProgress without doing any
// work if another pass holds the guard, and aborts on a storage error
// while listing.
func (s *VoteExpirySweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	if !s.running.TryLock() {
		s.metrics.SweepsSkipped.Inc()
		return nil, ErrSweepInProgress
	}
	defer s.running.Unlock()

	result := &SweepResult{StartTime: s.now()}
	defer func() {
		result.EndTime = s.now()
		s.metrics.SweepDuration.Observe(result.Duration().Seconds())
	}()

	userIDs, err := s.store.ListExpired(ctx, result.StartTime)
	if err != nil {
		s.logger.Printf("vote sweep aborted: %v", err)
		return result, err
	}
	result.Total = len(userIDs)
	if result.Total == 0 {
		return result, nil
	}
	s.logger.Printf("found %d expired votes", result.Total)

	for _, userID := range userIDs {
		s.expire(ctx, userID, result)
	}

	s.logger.Printf("vote sweep completed - total=%d revoked=%d not_found=%d failed=%d",
		result.Total, result.Revoked, result.NotFound, result.Failed)
	s.sendSummary(result)
	return result, nil
}

func (s *VoteExpirySweeper) expire(ctx context.Context, userID string, result *SweepResult) {
	res := s.actuator.Revoke(ctx, userID)
	s.metrics.ObserveAction("revoke", res.Outcome.String(), res.NoticeErr != nil)

	switch res.Outcome {
	case model.OutcomeSuccess:
		result.Revoked++
	case model.OutcomeNotFound:
		result.NotFound++
		s.logger.Printf("user %s not found in guild, dropping vote", userID)
	default:
		result.Failed++
		errMsg := fmt.Sprintf("revoke %s: %s", userID, res.Outcome)
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		result.Errors = append(result.Errors, errMsg)
		s.logger.Printf("error processing expiration for user %s: %s", userID, errMsg)
	}
	if res.NoticeErr != nil {
		result.NoticeFailed++
		s.logger.Printf("could not DM user %s: %v", userID, res.NoticeErr)
	}

	// The vote goes regardless of the revoke outcome; a failed revoke is not retried.
	if err := s.store.Delete(ctx, userID); err != nil {
		result.DeleteFailed++
		result.Errors = append(result.Errors, err.Error())
		s.logger.Printf("failed to delete vote for user %s: %v", userID, err)
		return
	}
	s.metrics.ExpiredVotes.Inc()
}

func (s *VoteExpirySweeper) sendSummary(result *SweepResult) {
	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("Expired: %d\n", result.Total))
	summary.WriteString(fmt.Sprintf("Revoked: %d\n", result.Revoked))
	summary.WriteString(fmt.Sprintf("Not in guild: %d\n", result.NotFound))
	summary.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
	if result.NoticeFailed > 0 {
		summary.WriteString(fmt.Sprintf("DMs not delivered: %d\n", result.NoticeFailed))
	}

	const maxErrors = 5
	for i, errMsg := range result.Errors {
		if i >= maxErrors {
			summary.WriteString(fmt.Sprintf("... and %d more errors\n", len(result.Errors)-maxErrors))
			break
		}
		if len(errMsg) > 100 {
			errMsg = errMsg[:97] + "..."
		}
		summary.WriteString(fmt.Sprintf("%d. %s\n", i+1, errMsg))
	}

	send := s.channel.Info
	if len(result.Errors) > 0 {
		send = s.channel.Warn
	}
	if err := send("VoteExpiry", "Sweep", summary.String()); err != nil {
		s.logger.Printf("failed to send sweep summary: %v", err)
	}
}
