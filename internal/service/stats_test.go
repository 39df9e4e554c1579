package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shortly/internal/entities"
	"shortly/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clicks(n int) []entities.ClickEvent {
	out := make([]entities.ClickEvent, n)
	for i := range out {
		out[i] = entities.ClickEvent{
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			Source:    fmt.Sprintf("ref-%d", i),
			Location:  entities.UnknownLocation,
		}
	}
	return out
}

func TestSummary(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seed(t,
		&entities.Link{LongURL: "https://old.example.com", Shortcode: "old111", Created: baseTime.Add(-2 * time.Hour),
			Expiry: baseTime.Add(-time.Hour), Clicks: 1, ClickData: clicks(1)},
		&entities.Link{LongURL: "https://mid.example.com", Shortcode: "mid222", Created: baseTime.Add(-time.Hour),
			Expiry: baseTime.Add(20 * time.Minute), Clicks: 3, ClickData: clicks(3)},
		&entities.Link{LongURL: "https://new.example.com", Shortcode: "new333", Created: baseTime,
			Expiry: baseTime.Add(65 * time.Minute)},
	)
	before := f.table(t)

	// Act
	summary, err := f.svc.Summary(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalLinks)
	assert.Equal(t, 4, summary.TotalClicks)
	assert.Equal(t, 2, summary.ActiveLinks)
	assert.Equal(t, 1, summary.ExpiredLinks)

	require.Len(t, summary.Links, 3)
	assert.Equal(t, "new333", summary.Links[0].Shortcode)
	assert.Equal(t, "mid222", summary.Links[1].Shortcode)
	assert.Equal(t, "old111", summary.Links[2].Shortcode)

	assert.Equal(t, service.StatusActive, summary.Links[0].Status)
	assert.Equal(t, service.ColorSuccess, summary.Links[0].StatusColor)
	assert.Equal(t, "1h 5m left", summary.Links[0].TimeLeft)

	assert.Equal(t, service.ColorWarning, summary.Links[1].StatusColor)
	assert.Equal(t, "20m left", summary.Links[1].TimeLeft)
	assert.Equal(t, 75.0, summary.Links[1].ClickShare)

	assert.Equal(t, service.StatusExpired, summary.Links[2].Status)
	assert.Equal(t, service.ColorError, summary.Links[2].StatusColor)
	assert.Equal(t, "Expired", summary.Links[2].TimeLeft)
	assert.Equal(t, 25.0, summary.Links[2].ClickShare)

	assert.Equal(t, before, f.table(t))
}

func TestSummary_EmptyTable(t *testing.T) {
	f := newFixture(t)

	summary, err := f.svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Zero(t, summary.TotalLinks)
	assert.Empty(t, summary.Links)
}

func TestLinkStats_RecentClicks(t *testing.T) {
	f := newFixture(t)
	f.seed(t, &entities.Link{LongURL: "https://example.com", Shortcode: "abc123", Created: baseTime,
		Expiry: baseTime.Add(time.Hour), Clicks: 15, ClickData: clicks(15)})

	stats, err := f.svc.LinkStats(context.Background(), "abc123", 0)

	require.NoError(t, err)
	assert.Equal(t, 15, stats.Clicks)
	assert.Equal(t, 100.0, stats.ClickShare)
	require.Len(t, stats.RecentClicks, service.DefaultRecentClicks)
	assert.Equal(t, "ref-14", stats.RecentClicks[0].Source)
	assert.Equal(t, "ref-5", stats.RecentClicks[9].Source)

	stats, err = f.svc.LinkStats(context.Background(), "abc123", 3)
	require.NoError(t, err)
	assert.Len(t, stats.RecentClicks, 3)

	stats, err = f.svc.LinkStats(context.Background(), "abc123", 100)
	require.NoError(t, err)
	assert.Len(t, stats.RecentClicks, 15)
}

func TestLinkStats_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.LinkStats(context.Background(), "nope99", 10)

	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestTimeLeft(t *testing.T) {
	testCases := []struct {
		left time.Duration
		want string
	}{
		{left: 65 * time.Minute, want: "1h 5m left"},
		{left: 12*time.Minute + 30*time.Second, want: "12m left"},
		{left: 0, want: "0m left"},
		{left: 7 * 24 * time.Hour, want: "168h 0m left"},
		{left: -time.Second, want: "Expired"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, service.TimeLeft(baseTime.Add(tc.left), baseTime))
		})
	}
}
