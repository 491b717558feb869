package scanner_test

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"sync"
	"testing"
	"time"

	"vote-role-bot/metrics"
	"vote-role-bot/model"
	"vote-role-bot/scanner"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type memoryStore struct {
	mu        sync.Mutex
	votes     map[string]time.Time
	listErr   error
	deleteErr map[string]error
	listCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{votes: make(map[string]time.Time), deleteErr: make(map[string]error)}
}

func (m *memoryStore) ListExpired(_ context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var ids []string
	for id, exp := range m.votes {
		if !exp.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[userID]; err != nil {
		return err
	}
	delete(m.votes, userID)
	return nil
}

func (m *memoryStore) has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.votes[userID]
	return ok
}

type fakeActuator struct {
	mu      sync.Mutex
	results map[string]model.ActionResult
	revoked []string
	started chan string
	release chan struct{}
}

func (f *fakeActuator) Grant(context.Context, string) model.ActionResult {
	return model.ActionResult{Outcome: model.OutcomeSuccess}
}

func (f *fakeActuator) Revoke(_ context.Context, userID string) model.ActionResult {
	if f.started != nil {
		f.started <- userID
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	if res, ok := f.results[userID]; ok {
		return res
	}
	return model.ActionResult{Outcome: model.OutcomeSuccess}
}

func newSweeper(store scanner.ExpiredVoteStore, act model.RoleActuator, now time.Time) *scanner.VoteExpirySweeper {
	return scanner.NewVoteExpirySweeper(scanner.SweeperDeps{
		Store:    store,
		Actuator: act,
		Logger:   silentLogger(),
		Metrics:  metrics.New("test"),
		Now:      func() time.Time { return now },
	})
}

func TestSweep_DeletesRegardlessOfOutcome(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	store := newMemoryStore()
	store.votes["ok"] = now.Add(-time.Minute)
	store.votes["gone"] = now.Add(-time.Minute)
	store.votes["broken"] = now
	store.votes["active"] = now.Add(time.Hour)

	act := &fakeActuator{results: map[string]model.ActionResult{
		"gone":   {Outcome: model.OutcomeNotFound, Err: errors.New("unknown member")},
		"broken": {Outcome: model.OutcomeFailed, Err: errors.New("missing permissions")},
	}}

	res, err := newSweeper(store, act, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if res.Total != 3 || res.Revoked != 1 || res.NotFound != 1 || res.Failed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	for _, id := range []string{"ok", "gone", "broken"} {
		if store.has(id) {
			t.Errorf("expected %s to be deleted", id)
		}
	}
	if !store.has("active") {
		t.Error("active vote must survive the sweep")
	}
	if len(act.revoked) != 3 {
		t.Errorf("expected 3 revokes, got %v", act.revoked)
	}
}

func TestSweep_FailedOutcomeWithoutError(t *testing.T) {
	now := time.Now()
	store := newMemoryStore()
	store.votes["u1"] = now.Add(-time.Second)
	store.votes["u2"] = now.Add(-time.Second)
	act := &fakeActuator{results: map[string]model.ActionResult{
		"u1": {Outcome: model.OutcomeFailed},
	}}

	res, err := newSweeper(store, act, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Failed != 1 || res.Revoked != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "revoke u1: failed" {
		t.Errorf("unexpected errors %v", res.Errors)
	}
	for _, id := range []string{"u1", "u2"} {
		if store.has(id) {
			t.Errorf("expected %s to be deleted", id)
		}
	}
}

func TestSweep_NoticeFailureCounted(t *testing.T) {
	now := time.Now()
	store := newMemoryStore()
	store.votes["u1"] = now.Add(-time.Second)
	act := &fakeActuator{results: map[string]model.ActionResult{
		"u1": {Outcome: model.OutcomeSuccess, NoticeErr: errors.New("dms closed")},
	}}

	res, err := newSweeper(store, act, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Revoked != 1 || res.NoticeFailed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if store.has("u1") {
		t.Error("expected u1 to be deleted")
	}
}

func TestSweep_DeleteFailureDoesNotStopBatch(t *testing.T) {
	now := time.Now()
	store := newMemoryStore()
	store.votes["a"] = now.Add(-time.Second)
	store.votes["b"] = now.Add(-time.Second)
	store.deleteErr["a"] = errors.New("disk I/O error")
	act := &fakeActuator{}

	res, err := newSweeper(store, act, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.DeleteFailed != 1 {
		t.Errorf("expected 1 delete failure, got %d", res.DeleteFailed)
	}
	if store.has("b") {
		t.Error("expected b to be deleted after a's failure")
	}
}

func TestSweep_ListFailureAborts(t *testing.T) {
	store := newMemoryStore()
	store.listErr = errors.New("database is locked")
	act := &fakeActuator{}

	if _, err := newSweeper(store, act, time.Now()).Sweep(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
	if len(act.revoked) != 0 {
		t.Errorf("expected no revokes, got %v", act.revoked)
	}
}

func TestSweep_OverlappingPassIsSkipped(t *testing.T) {
	now := time.Now()
	store := newMemoryStore()
	store.votes["u1"] = now.Add(-time.Second)
	store.votes["u2"] = now.Add(-time.Second)
	act := &fakeActuator{
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	sw := newSweeper(store, act, now)

	done := make(chan *scanner.SweepResult)
	go func() {
		res, err := sw.Sweep(context.Background())
		if err != nil {
			t.Errorf("first sweep: %v", err)
		}
		done <- res
	}()

	// Wait until the first pass is inside the batch.
	<-act.started

	res, err := sw.Sweep(context.Background())
	if !errors.Is(err, scanner.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result from skipped pass, got %+v", res)
	}

	close(act.release)
	first := <-done

	if first.Total != 2 || first.Revoked != 2 {
		t.Errorf("unexpected first result %+v", first)
	}
	if len(act.revoked) != 2 {
		t.Errorf("expected each user revoked once, got %v", act.revoked)
	}
	if store.listCalls != 1 {
		t.Errorf("expected a single snapshot, got %d", store.listCalls)
	}

	// The guard is released once the pass completes.
	if _, err := sw.Sweep(context.Background()); err != nil {
		t.Errorf("sweep after completion: %v", err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := newMemoryStore()
	store.votes["u1"] = time.Now().Add(-time.Second)
	act := &fakeActuator{}
	sw := scanner.NewVoteExpirySweeper(scanner.SweeperDeps{
		Store:    store,
		Actuator: act,
		Interval: 10 * time.Millisecond,
		Logger:   silentLogger(),
		Metrics:  metrics.New("test"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(stopped)
	}()

	deadline := time.After(2 * time.Second)
	for store.has("u1") {
		select {
		case <-deadline:
			t.Fatal("sweeper never removed the expired vote")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
