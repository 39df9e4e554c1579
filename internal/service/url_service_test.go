package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shortly/internal/clock"
	"shortly/internal/entities"
	"shortly/internal/models"
	"shortly/internal/repository"
	"shortly/internal/service"
	"shortly/internal/shortcode"
	"shortly/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recordedEvent struct {
	stack, level, pkg, message string
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Log(stack, level, pkg, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{stack, level, pkg, message})
}

func (r *eventRecorder) count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.level == level {
			n++
		}
	}
	return n
}

// retryingRepository runs every update twice, discarding the first run, the
// way an optimistic store does after a conflicting write.
type retryingRepository struct {
	*repository.MemoryRepository
}

func (r retryingRepository) Update(ctx context.Context, fn func(entities.Table) error) error {
	table, err := r.MemoryRepository.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(table); err != nil {
		return err
	}
	return r.MemoryRepository.Update(ctx, fn)
}

type failingRepository struct {
	*repository.MemoryRepository
	err error
}

func (r failingRepository) Update(context.Context, func(entities.Table) error) error {
	return r.err
}

func (r failingRepository) Load(context.Context) (entities.Table, error) {
	return nil, r.err
}

type fixture struct {
	svc    service.URLService
	repo   *repository.MemoryRepository
	clock  *clock.Mock
	events *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   repository.NewMemoryRepository(),
		clock:  clock.NewMock(baseTime),
		events: &eventRecorder{},
	}
	f.svc = service.NewURLService(f.repo, service.Options{
		BaseURL: "http://localhost:8080",
		Clock:   f.clock,
		Events:  f.events,
	})
	return f
}

func (f *fixture) table(t *testing.T) entities.Table {
	t.Helper()
	table, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	return table
}

func (f *fixture) seed(t *testing.T, links ...*entities.Link) {
	t.Helper()
	table := make(entities.Table)
	for _, link := range links {
		table[link.Shortcode] = link
	}
	require.NoError(t, f.repo.Save(context.Background(), table))
}

func fieldErrors(t *testing.T, err error) []*validation.FieldError {
	t.Helper()
	var report *validation.Report
	require.True(t, errors.As(err, &report), "expected *validation.Report, got %v", err)
	return report.FieldErrors()
}

func TestShorten_DefaultValidity(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	resp, err := f.svc.Shorten(context.Background(), []models.EntryRequest{{LongURL: "example.com"}})

	// Assert
	require.NoError(t, err)
	require.Len(t, resp.Links, 1)

	link := resp.Links[0]
	assert.Equal(t, "https://example.com", link.LongURL)
	assert.Len(t, link.Shortcode, shortcode.GeneratedLength)
	assert.Equal(t, "http://localhost:8080/"+link.Shortcode, link.ShortURL)
	assert.Equal(t, baseTime, link.Created)
	assert.Equal(t, baseTime.Add(30*time.Minute), link.Expiry)

	stored := f.table(t)[link.Shortcode]
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.Clicks)
	assert.Empty(t, stored.ClickData)
	assert.Equal(t, 1, f.events.count("info"))
}

func TestShorten_CustomCodeAndValidity(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Shorten(context.Background(), []models.EntryRequest{
		{LongURL: "https://a.example.com", Validity: "90", Shortcode: "Promo1"},
		{LongURL: "https://b.example.com"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Links, 2)
	assert.Equal(t, "Promo1", resp.Links[0].Shortcode)
	assert.Equal(t, baseTime.Add(90*time.Minute), resp.Links[0].Expiry)
	assert.NotEqual(t, "Promo1", resp.Links[1].Shortcode)
	assert.Len(t, f.table(t), 2)
}

func TestShorten_ConfiguredDefaultValidity(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := service.NewURLService(repo, service.Options{
		Clock:                  clock.NewMock(baseTime),
		DefaultValidityMinutes: 120,
	})

	resp, err := svc.Shorten(context.Background(), []models.EntryRequest{{LongURL: "example.com"}})

	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(2*time.Hour), resp.Links[0].Expiry)
}

func TestShorten_InvalidEntriesLeaveTableUntouched(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []models.EntryRequest
		wantCode string
	}{
		{
			name:     "shortcode too short",
			entries:  []models.EntryRequest{{LongURL: "example.com", Shortcode: "ab"}},
			wantCode: validation.CodeInvalidShortcode,
		},
		{
			name:     "validity above one week",
			entries:  []models.EntryRequest{{LongURL: "example.com", Validity: "10081"}},
			wantCode: validation.CodeInvalidValidity,
		},
		{
			name: "duplicate urls in batch",
			entries: []models.EntryRequest{
				{LongURL: "https://Example.com/a"},
				{LongURL: "example.com/a"},
			},
			wantCode: validation.CodeDuplicateURL,
		},
		{
			name:     "empty batch",
			entries:  nil,
			wantCode: validation.CodeBatchSize,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Shorten(context.Background(), tc.entries)

			errs := fieldErrors(t, err)
			require.NotEmpty(t, errs)
			assert.Equal(t, tc.wantCode, errs[0].Code)
			assert.Empty(t, f.table(t))
			assert.Equal(t, 0, f.events.count("info"))
		})
	}
}

func TestShorten_TooShortShortcodeReason(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Shorten(context.Background(), []models.EntryRequest{{LongURL: "example.com", Shortcode: "ab"}})

	errs := fieldErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, string(shortcode.ReasonTooShort), errs[0].Reason)
}

func TestShorten_CustomCodeTakenAbortsWholeBatch(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, &entities.Link{
		LongURL:   "https://existing.example.com",
		Shortcode: "taken1",
		Created:   baseTime,
		Expiry:    baseTime.Add(time.Hour),
	})

	// Act
	_, err := f.svc.Shorten(context.Background(), []models.EntryRequest{
		{LongURL: "https://first.example.com"},
		{LongURL: "https://second.example.com", Shortcode: "taken1"},
	})

	// Assert
	errs := fieldErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, validation.CodeDuplicateShortcode, errs[0].Code)
	assert.Equal(t, string(shortcode.ReasonDuplicate), errs[0].Reason)

	table := f.table(t)
	assert.Len(t, table, 1)
	assert.Equal(t, "https://existing.example.com", table["taken1"].LongURL)
}

func TestShorten_ReservedCodesAreTaken(t *testing.T) {
	for _, code := range []string{"health", "metrics"} {
		t.Run(code, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Shorten(context.Background(), []models.EntryRequest{
				{LongURL: "https://example.com", Shortcode: code},
			})

			errs := fieldErrors(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, validation.CodeDuplicateShortcode, errs[0].Code)
			assert.Equal(t, string(shortcode.ReasonDuplicate), errs[0].Reason)
			assert.Empty(t, f.table(t))
		})
	}
}

func TestShorten_ExhaustedAllocationAbortsBatch(t *testing.T) {
	// Every random candidate is "000000" and the clock fallback is pinned.
	mock := clock.NewMock(baseTime)
	fallback := shortcode.NewGeneratorWith(func(int) int { return 0 }, mock)

	repo := repository.NewMemoryRepository()
	svc := service.NewURLService(repo, service.Options{Clock: mock, Generator: fallback})

	// The first entry takes the random code, the second the fallback, the
	// third has nothing left.
	_, err := svc.Shorten(context.Background(), []models.EntryRequest{
		{LongURL: "https://one.example.com"},
		{LongURL: "https://two.example.com"},
		{LongURL: "https://three.example.com"},
	})

	require.ErrorIs(t, err, entities.ErrShortcodeExhausted)
	table, loadErr := repo.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Empty(t, table)
}

func TestShorten_RetriedUpdateReturnsOnlyFinalLinks(t *testing.T) {
	repo := retryingRepository{repository.NewMemoryRepository()}
	svc := service.NewURLService(repo, service.Options{Clock: clock.NewMock(baseTime)})

	resp, err := svc.Shorten(context.Background(), []models.EntryRequest{
		{LongURL: "https://one.example.com", Shortcode: "first1"},
		{LongURL: "https://two.example.com", Shortcode: "second2"},
	})

	require.NoError(t, err)
	assert.Len(t, resp.Links, 2)
}

func TestShorten_PersistenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	repo := failingRepository{MemoryRepository: repository.NewMemoryRepository(), err: boom}
	events := &eventRecorder{}
	svc := service.NewURLService(repo, service.Options{Events: events})

	_, err := svc.Shorten(context.Background(), []models.EntryRequest{{LongURL: "example.com"}})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, events.count("error"))
}

func TestResolve_RecordsClick(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t, &entities.Link{
		LongURL:   "https://example.com",
		Shortcode: "abc123",
		Created:   baseTime,
		Expiry:    baseTime.Add(30 * time.Minute),
		ClickData: []entities.ClickEvent{},
	})
	f.clock.Advance(5 * time.Minute)

	// Act
	res, err := f.svc.Resolve(context.Background(), "abc123", "", "test-agent")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", res.Target)
	assert.Equal(t, 2*time.Second, res.Delay)
	assert.Equal(t, 1, res.Link.Clicks)

	stored := f.table(t)["abc123"]
	require.Len(t, stored.ClickData, 1)
	assert.Equal(t, 1, stored.Clicks)
	assert.Equal(t, entities.ClickEvent{
		Timestamp: baseTime.Add(5 * time.Minute),
		Source:    entities.DirectSource,
		Location:  entities.UnknownLocation,
		UserAgent: "test-agent",
	}, stored.ClickData[0])
}

func TestResolve_RepeatedClicksAccumulate(t *testing.T) {
	f := newFixture(t)
	f.seed(t, &entities.Link{
		LongURL:   "https://example.com",
		Shortcode: "abc123",
		Created:   baseTime,
		Expiry:    baseTime.Add(time.Hour),
	})

	const n = 7
	for i := 0; i < n; i++ {
		_, err := f.svc.Resolve(context.Background(), "abc123", "https://news.example.org", "ua")
		require.NoError(t, err)
	}

	stored := f.table(t)["abc123"]
	assert.Equal(t, n, stored.Clicks)
	assert.Len(t, stored.ClickData, n)
	assert.Equal(t, "https://news.example.org", stored.ClickData[0].Source)
}

func TestResolve_ConcurrentClicksAreNotLost(t *testing.T) {
	f := newFixture(t)
	f.seed(t, &entities.Link{
		LongURL:   "https://example.com",
		Shortcode: "abc123",
		Created:   baseTime,
		Expiry:    baseTime.Add(time.Hour),
	})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Resolve(context.Background(), "abc123", "", "ua")
		}()
	}
	wg.Wait()

	stored := f.table(t)["abc123"]
	assert.Equal(t, n, stored.Clicks)
	assert.Len(t, stored.ClickData, n)
}

func TestResolve_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	expiry := baseTime.Add(30 * time.Minute)
	f.seed(t, &entities.Link{
		LongURL:   "https://example.com",
		Shortcode: "abc123",
		Created:   baseTime,
		Expiry:    expiry,
	})

	// Equal to expiry is still active
	f.clock.Set(expiry)
	_, err := f.svc.Resolve(context.Background(), "abc123", "", "")
	require.NoError(t, err)

	f.clock.Set(expiry.Add(time.Minute))
	_, err = f.svc.Resolve(context.Background(), "abc123", "", "")
	require.ErrorIs(t, err, entities.ErrExpired)

	stored := f.table(t)["abc123"]
	assert.Equal(t, 1, stored.Clicks)
	assert.Len(t, stored.ClickData, 1)
}

func TestResolve_NotFoundIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, &entities.Link{
		LongURL:   "https://example.com",
		Shortcode: "abc123",
		Created:   baseTime,
		Expiry:    baseTime.Add(time.Hour),
	})
	before := f.table(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Resolve(context.Background(), "nope99", "", "")
		require.ErrorIs(t, err, entities.ErrNotFound)
	}

	assert.Equal(t, before, f.table(t))
	assert.Equal(t, 3, f.events.count("warn"))
}

func TestResolve_PersistenceFailure(t *testing.T) {
	boom := errors.New("connection reset")
	repo := failingRepository{MemoryRepository: repository.NewMemoryRepository(), err: boom}
	svc := service.NewURLService(repo, service.Options{})

	_, err := svc.Resolve(context.Background(), "abc123", "", "")

	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, entities.ErrNotFound))
}

func TestResolve_ConfiguredDelay(t *testing.T) {
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Save(context.Background(), entities.Table{
		"abc123": {LongURL: "https://example.com", Shortcode: "abc123", Created: baseTime, Expiry: baseTime.Add(time.Hour)},
	}))
	svc := service.NewURLService(repo, service.Options{Clock: clock.NewMock(baseTime), RedirectDelay: 500 * time.Millisecond})

	res, err := svc.Resolve(context.Background(), "abc123", "", "")

	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, res.Delay)
}
