package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaignentity "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
)

type fakeTrigger struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTrigger) RunScan(_ context.Context, campaignID string, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, campaignID)
	return nil
}

func (f *fakeTrigger) campaignIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeSource struct {
	mu        sync.Mutex
	due       []campaignentity.Campaign
	lastLimit int
}

func (f *fakeSource) GetDueForScan(_ context.Context, _ time.Time, limit int) ([]campaignentity.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	due := f.due
	f.due = nil
	return due, nil
}

type fakeSweeper struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakeSweeper) FailStale(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 0, nil
}

func TestSchedulerTriggersDueCampaigns(t *testing.T) {
	trigger := &fakeTrigger{}
	source := &fakeSource{due: []campaignentity.Campaign{
		{ID: "camp-1"},
		{ID: "camp-2"},
	}}
	sweeper := &fakeSweeper{}

	s := New(trigger, source, sweeper, Config{
		Interval:     time.Hour, // only the immediate startup tick fires
		StaleTimeout: 2 * time.Hour,
		BatchSize:    10,
	}, slog.Default())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(trigger.campaignIDs()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{"camp-1", "camp-2"}, trigger.campaignIDs())
	assert.Equal(t, 10, source.lastLimit)
}

func TestSchedulerSweepsStaleScansBeforeTriggering(t *testing.T) {
	trigger := &fakeTrigger{}
	source := &fakeSource{}
	sweeper := &fakeSweeper{}

	s := New(trigger, source, sweeper, Config{
		Interval:     time.Hour,
		StaleTimeout: 2 * time.Hour,
	}, slog.Default())

	before := time.Now()
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		return len(sweeper.cutoffs) > 0
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.mu.Lock()
	cutoff := sweeper.cutoffs[0]
	sweeper.mu.Unlock()

	// The cutoff trails now by the stale timeout.
	assert.WithinDuration(t, before.Add(-2*time.Hour), cutoff, time.Minute)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := New(&fakeTrigger{}, &fakeSource{}, &fakeSweeper{}, Config{Interval: time.Hour}, slog.Default())

	s.Start(context.Background())
	s.Start(context.Background()) // second start is a no-op
	s.Stop()
	s.Stop() // second stop must not panic
}

func TestSchedulerDefaults(t *testing.T) {
	s := New(&fakeTrigger{}, &fakeSource{}, &fakeSweeper{}, Config{}, slog.Default())

	assert.Equal(t, 5*time.Minute, s.interval)
	assert.Equal(t, 2*time.Hour, s.staleTimeout)
	assert.Equal(t, 10, s.batchSize)
}
