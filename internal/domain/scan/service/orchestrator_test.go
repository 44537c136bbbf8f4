package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	campaigndao "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/dao"
	campaignentity "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// memCampaigns is an in-memory CampaignRepository
type memCampaigns struct {
	mu         sync.Mutex
	campaigns  map[string]*campaignentity.Campaign
	nextScanAt map[string]time.Time
}

func newMemCampaigns(campaigns ...*campaignentity.Campaign) *memCampaigns {
	m := &memCampaigns{
		campaigns:  make(map[string]*campaignentity.Campaign),
		nextScanAt: make(map[string]time.Time),
	}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *memCampaigns) Create(_ context.Context, c *campaignentity.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	return nil
}

func (m *memCampaigns) GetByID(_ context.Context, id string) (*campaignentity.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (m *memCampaigns) Update(_ context.Context, c *campaignentity.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	return nil
}

func (m *memCampaigns) Archive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.campaigns[id]; ok {
		c.Archived = true
	}
	return nil
}

func (m *memCampaigns) List(_ context.Context, _ campaigndao.CampaignFilter, _ campaigndao.ListOptions) ([]campaignentity.Campaign, error) {
	return nil, nil
}

func (m *memCampaigns) GetDueForScan(_ context.Context, _ time.Time, _ int) ([]campaignentity.Campaign, error) {
	return nil, nil
}

func (m *memCampaigns) SetNextScanAt(_ context.Context, id string, nextScanAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextScanAt[id] = nextScanAt
	return nil
}

// memScans is an in-memory ScanRepository that enforces the same status
// transition predicates as the SQL implementation
type memScans struct {
	mu    sync.Mutex
	scans map[string]*entity.Scan

	failMarkCompleted error
}

func newMemScans() *memScans {
	return &memScans{scans: make(map[string]*entity.Scan)}
}

func (m *memScans) Create(_ context.Context, s *entity.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.scans[s.ID] = &clone
	return nil
}

func (m *memScans) GetByID(_ context.Context, id string) (*entity.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[id]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (m *memScans) ListByCampaign(_ context.Context, campaignID string, _ int) ([]entity.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Scan
	for _, s := range m.scans {
		if s.CampaignID == campaignID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memScans) MarkRunning(_ context.Context, id string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[id]
	if !ok || s.Status != entity.ScanStatusPending {
		return entity.ErrInvalidTransition
	}
	s.Status = entity.ScanStatusRunning
	s.StartedAt = &startedAt
	return nil
}

func (m *memScans) UpdateProgress(_ context.Context, id string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.scans[id]; ok && progress > s.Progress {
		s.Progress = progress
	}
	return nil
}

func (m *memScans) MarkCompleted(_ context.Context, in *entity.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkCompleted != nil {
		return m.failMarkCompleted
	}
	s, ok := m.scans[in.ID]
	if !ok || s.Status != entity.ScanStatusRunning {
		return entity.ErrInvalidTransition
	}
	clone := *in
	clone.Status = entity.ScanStatusCompleted
	m.scans[in.ID] = &clone
	return nil
}

func (m *memScans) MarkFailed(_ context.Context, id string, errorMessage string, failedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[id]
	if !ok || s.Status != entity.ScanStatusRunning {
		return entity.ErrInvalidTransition
	}
	s.Status = entity.ScanStatusFailed
	s.ErrorMessage = errorMessage
	s.CompletedAt = &failedAt
	return nil
}

func (m *memScans) FailStale(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	swept := 0
	for _, s := range m.scans {
		if s.Status == entity.ScanStatusRunning && s.StartedAt != nil && s.StartedAt.Before(cutoff) {
			s.Status = entity.ScanStatusFailed
			swept++
		}
	}
	return swept, nil
}

func (m *memScans) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scans, id)
	return nil
}

func (m *memScans) only(t *testing.T) *entity.Scan {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.scans, 1)
	for _, s := range m.scans {
		clone := *s
		return &clone
	}
	return nil
}

// memResults is an in-memory ResultRepository
type memResults struct {
	mu      sync.Mutex
	byScan  map[string][]entity.KeywordScanResult
	failure error
}

func newMemResults() *memResults {
	return &memResults{byScan: make(map[string][]entity.KeywordScanResult)}
}

func (m *memResults) ReplaceForScan(_ context.Context, scanID string, results []entity.KeywordScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.byScan[scanID] = results
	return nil
}

func (m *memResults) ListByScan(_ context.Context, scanID string) ([]entity.KeywordScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byScan[scanID], nil
}

// memStats is an in-memory CompetitorStatRepository
type memStats struct {
	mu       sync.Mutex
	byScan   map[string][]entity.CompetitorStat
	previous []entity.CompetitorStat
	failure  error
}

func newMemStats() *memStats {
	return &memStats{byScan: make(map[string][]entity.CompetitorStat)}
}

func (m *memStats) ReplaceForScan(_ context.Context, scanID string, stats []entity.CompetitorStat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.byScan[scanID] = stats
	return nil
}

func (m *memStats) ListByScan(_ context.Context, scanID string) ([]entity.CompetitorStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byScan[scanID], nil
}

func (m *memStats) GetPreviousCompleted(_ context.Context, _, _ string) ([]entity.CompetitorStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.previous, nil
}

func testCampaign() *campaignentity.Campaign {
	return &campaignentity.Campaign{
		ID:            "camp-1",
		Name:          "Downtown Plumbing",
		TargetPlaceID: "target",
		TargetName:    "Joe's Plumbing",
		CenterLat:     30.2672,
		CenterLng:     -97.7431,
		GridSize:      3,
		RadiusKm:      5,
		Keywords:      []string{"plumber"},
		Frequency:     campaignentity.ScanFrequencyWeekly,
	}
}

type orchFixture struct {
	campaigns *memCampaigns
	scans     *memScans
	results   *memResults
	stats     *memStats
	lookup    RankLookup
	orch      *Orchestrator
}

func newOrchFixture(campaign *campaignentity.Campaign, lookup RankLookup, opts ...OrchestratorOption) *orchFixture {
	f := &orchFixture{
		campaigns: newMemCampaigns(),
		scans:     newMemScans(),
		results:   newMemResults(),
		stats:     newMemStats(),
		lookup:    lookup,
	}
	if campaign != nil {
		f.campaigns.campaigns[campaign.ID] = campaign
	}

	scanner := NewScanner(lookup, semaphore.NewWeighted(100))
	opts = append(opts, WithCostPerCall(0.002))
	f.orch = NewOrchestrator(f.campaigns, f.scans, f.results, f.stats, scanner, opts...)
	return f
}

func TestOrchestratorRunScanHappyPath(t *testing.T) {
	lookup := &fakeLookup{rank: 1, listings: []entity.RankedBusiness{
		{Name: "Joe's Plumbing", PlaceID: "target", Rank: 1},
		{Name: "Ace Plumbing", PlaceID: "rival", Rank: 2},
	}}
	f := newOrchFixture(testCampaign(), lookup)

	outcome, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.NoError(t, err)

	require.NotNil(t, outcome.ShareOfVoice)
	assert.InDelta(t, 1.0, *outcome.ShareOfVoice, 1e-9)
	require.NotNil(t, outcome.AvgRank)
	assert.InDelta(t, 1.0, *outcome.AvgRank, 1e-9)
	assert.Equal(t, "Joe's Plumbing", outcome.TopCompetitor)
	assert.Equal(t, 9, outcome.APICallsUsed)
	assert.Equal(t, 0, outcome.FailedPoints)

	scan := f.scans.only(t)
	assert.Equal(t, entity.ScanStatusCompleted, scan.Status)
	assert.Equal(t, 100, scan.Progress)
	assert.InDelta(t, 9*0.002, scan.CostEstimate, 1e-9)
	require.NotNil(t, scan.StartedAt)
	require.NotNil(t, scan.CompletedAt)

	// One point result per (keyword, grid point) pair.
	assert.Len(t, f.results.byScan[scan.ID], 9)
	assert.NotEmpty(t, f.stats.byScan[scan.ID])

	// The next scheduled scan follows the campaign cadence.
	next, ok := f.campaigns.nextScanAt["camp-1"]
	require.True(t, ok)
	assert.WithinDuration(t, scan.CompletedAt.Add(7*24*time.Hour), next, time.Minute)
}

func TestOrchestratorKeywordOverride(t *testing.T) {
	lookup := &fakeLookup{rank: 1, listings: []entity.RankedBusiness{
		{Name: "Joe's Plumbing", PlaceID: "target", Rank: 1},
	}}
	f := newOrchFixture(testCampaign(), lookup)

	_, err := f.orch.RunScan(context.Background(), "camp-1", []string{"drain cleaning", "water heater"})
	require.NoError(t, err)

	scan := f.scans.only(t)
	assert.Equal(t, []string{"drain cleaning", "water heater"}, scan.Keywords)
	assert.Equal(t, 18, scan.APICallCount)
}

func TestOrchestratorUnknownCampaign(t *testing.T) {
	f := newOrchFixture(nil, &fakeLookup{})

	_, err := f.orch.RunScan(context.Background(), "missing", nil)
	require.ErrorIs(t, err, campaignentity.ErrCampaignNotFound)
	assert.Empty(t, f.scans.scans)
}

func TestOrchestratorArchivedCampaign(t *testing.T) {
	campaign := testCampaign()
	campaign.Archived = true
	f := newOrchFixture(campaign, &fakeLookup{})

	_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.ErrorIs(t, err, campaignentity.ErrCampaignArchived)
	assert.Empty(t, f.scans.scans)
}

func TestOrchestratorFailsScanWithoutKeywords(t *testing.T) {
	campaign := testCampaign()
	campaign.Keywords = nil
	f := newOrchFixture(campaign, &fakeLookup{})

	_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.ErrorIs(t, err, entity.ErrNoKeywords)

	// Precondition failures are recorded through the running state, so the
	// scan ends failed rather than stuck pending.
	scan := f.scans.only(t)
	assert.Equal(t, entity.ScanStatusFailed, scan.Status)
	assert.NotEmpty(t, scan.ErrorMessage)
}

func TestOrchestratorRejectsConcurrentScanForCampaign(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	lookup := &blockingLookup{release: release, started: started, once: &once}
	f := newOrchFixture(testCampaign(), lookup)

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
		done <- err
	}()

	<-started

	_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.ErrorIs(t, err, entity.ErrScanAlreadyRunning)

	close(release)
	require.NoError(t, <-done)
}

func TestOrchestratorCompletesScanWithPartialFailures(t *testing.T) {
	// 2 keywords over a 3x3 grid is 18 lookups; the first 3 fail for good.
	// Point-level failures are tolerated, so the scan still completes with
	// the remaining 15 successes and a failed-point count of 3.
	lookup := &fakeLookup{
		rank: 2,
		listings: []entity.RankedBusiness{
			{Name: "Ace Plumbing", PlaceID: "rival", Rank: 1},
			{Name: "Joe's Plumbing", PlaceID: "target", Rank: 2},
		},
		failFor: func(attempt int) error {
			if attempt <= 3 {
				return permanentErr{}
			}
			return nil
		},
	}
	campaign := testCampaign()
	campaign.Keywords = []string{"plumber", "emergency plumber"}
	f := newOrchFixture(campaign, lookup)

	outcome, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.FailedPoints)
	assert.Equal(t, 18, outcome.APICallsUsed)

	scan := f.scans.only(t)
	assert.Equal(t, entity.ScanStatusCompleted, scan.Status)
	assert.Equal(t, 3, scan.FailedPoints)
	assert.Equal(t, 100, scan.Progress)

	results := f.results.byScan[scan.ID]
	require.Len(t, results, 18)
	successes := 0
	for _, r := range results {
		if r.Success {
			successes++
		}
	}
	assert.Equal(t, 15, successes)
}

func TestOrchestratorRejectsScanOverGlobalLimit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	lookup := &blockingLookup{release: release, started: started, once: &once}
	f := newOrchFixture(testCampaign(), lookup, WithMaxConcurrentScans(1))

	second := testCampaign()
	second.ID = "camp-2"
	require.NoError(t, f.campaigns.Create(context.Background(), second))

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
		done <- err
	}()

	<-started

	_, err := f.orch.RunScan(context.Background(), "camp-2", nil)
	require.ErrorIs(t, err, entity.ErrScanLimitReached)

	close(release)
	require.NoError(t, <-done)
}

func TestOrchestratorPersistenceFailureLeavesScanRunning(t *testing.T) {
	lookup := &fakeLookup{rank: 1, listings: []entity.RankedBusiness{
		{Name: "Joe's Plumbing", PlaceID: "target", Rank: 1},
	}}
	f := newOrchFixture(testCampaign(), lookup)
	f.stats.failure = errors.New("connection reset")

	_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.Error(t, err)

	// The scan is left running for the stale sweep to reconcile; a
	// completion that was never persisted must not be reported.
	scan := f.scans.only(t)
	assert.Equal(t, entity.ScanStatusRunning, scan.Status)
}

func TestOrchestratorAppliesRankChangesFromPreviousScan(t *testing.T) {
	lookup := &fakeLookup{rank: 2, listings: []entity.RankedBusiness{
		{Name: "Joe's Plumbing", PlaceID: "target", Rank: 2},
	}}
	f := newOrchFixture(testCampaign(), lookup)
	f.stats.previous = []entity.CompetitorStat{
		{PlaceID: "target", Name: "Joe's Plumbing", AvgRank: 8.0},
	}

	_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.NoError(t, err)

	scan := f.scans.only(t)
	stats := f.stats.byScan[scan.ID]
	require.Len(t, stats, 1)
	require.NotNil(t, stats[0].RankChange)
	assert.InDelta(t, 6.0, *stats[0].RankChange, 1e-9)
}

func TestOrchestratorFiresProfileRefresh(t *testing.T) {
	lookup := &fakeLookup{rank: 1, listings: []entity.RankedBusiness{
		{Name: "Joe's Plumbing", PlaceID: "target", Rank: 1},
	}}

	refreshed := make(chan string, 1)
	f := newOrchFixture(testCampaign(), lookup,
		WithProfileRefresher(refreshFunc(func(_ context.Context, placeID string) error {
			refreshed <- placeID
			return nil
		})),
	)

	_, err := f.orch.RunScan(context.Background(), "camp-1", nil)
	require.NoError(t, err)

	select {
	case placeID := <-refreshed:
		assert.Equal(t, "target", placeID)
	case <-time.After(2 * time.Second):
		t.Fatal("profile refresh was not triggered")
	}
}

func TestOrchestratorGetScanProgress(t *testing.T) {
	f := newOrchFixture(testCampaign(), &fakeLookup{})

	_, err := f.orch.GetScanProgress(context.Background(), "missing")
	require.ErrorIs(t, err, entity.ErrScanNotFound)

	scan := &entity.Scan{ID: "scan-1", CampaignID: "camp-1", Status: entity.ScanStatusRunning, Progress: 40}
	require.NoError(t, f.scans.Create(context.Background(), scan))

	progress, err := f.orch.GetScanProgress(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ScanStatusRunning, progress.Status)
	assert.Equal(t, 40, progress.Progress)
}

func TestProgressSinkReportsWholeIncrementsOnly(t *testing.T) {
	var writes []int
	sink := newProgressSink(func(pct int) { writes = append(writes, pct) })

	total := 25
	for i := 1; i <= total; i++ {
		sink.observe(i, total)
	}

	// At most one write lands per 10% band, strictly increasing, ending at 100.
	require.NotEmpty(t, writes)
	assert.Equal(t, 100, writes[len(writes)-1])
	seenBand := make(map[int]bool)
	last := 0
	for _, pct := range writes {
		assert.Greater(t, pct, last, "progress writes must be increasing")
		band := pct / 10
		if pct != 100 {
			assert.False(t, seenBand[band], "duplicate write in band %d", band)
		}
		seenBand[band] = true
		last = pct
	}
}

func TestProgressSinkIgnoresZeroTotal(t *testing.T) {
	called := false
	sink := newProgressSink(func(int) { called = true })
	sink.observe(1, 0)
	assert.False(t, called)
}

// blockingLookup parks every lookup until released
type blockingLookup struct {
	release <-chan struct{}
	started chan<- struct{}
	once    *sync.Once
}

func (b *blockingLookup) LookupRank(ctx context.Context, _ string, _, _ float64, _ string) (*LookupResult, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	rank := 1
	return &LookupResult{
		TargetRank: &rank,
		TopResults: []entity.RankedBusiness{{Name: "Joe's Plumbing", PlaceID: "target", Rank: 1}},
	}, nil
}

// refreshFunc adapts a function to ProfileRefresher
type refreshFunc func(ctx context.Context, placeID string) error

func (f refreshFunc) RefreshProfile(ctx context.Context, placeID string) error {
	return f(ctx, placeID)
}
