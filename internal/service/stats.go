package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"shortly/internal/entities"
	"shortly/internal/models"
)

const DefaultRecentClicks = 10

// Link status values and their display colours
const (
	StatusActive  = "active"
	StatusExpired = "expired"

	ColorSuccess = "success"
	ColorWarning = "warning"
	ColorError   = "error"
)

// Summary returns aggregate statistics and every link, newest first.
// It never modifies the table.
func (s *urlService) Summary(ctx context.Context) (*models.StatsSummary, error) {
	table, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load url mappings: %w", err)
	}

	now := s.clock.Now()
	total := totalClicks(table)

	summary := &models.StatsSummary{
		TotalLinks:  len(table),
		TotalClicks: total,
		Links:       make([]models.LinkStats, 0, len(table)),
	}

	for _, link := range table {
		stats := s.linkStats(link, now, total)
		if stats.Status == StatusExpired {
			summary.ExpiredLinks++
		} else {
			summary.ActiveLinks++
		}
		summary.Links = append(summary.Links, stats)
	}

	sort.Slice(summary.Links, func(i, j int) bool {
		a, b := summary.Links[i], summary.Links[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.Shortcode < b.Shortcode
	})

	return summary, nil
}

// LinkStats returns one link with its latest clicks, newest first. A
// non-positive limit selects DefaultRecentClicks.
func (s *urlService) LinkStats(ctx context.Context, shortCode string, limit int) (*models.LinkStats, error) {
	table, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load url mappings: %w", err)
	}

	link, ok := table[shortCode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, shortCode)
	}

	if limit <= 0 {
		limit = DefaultRecentClicks
	}

	stats := s.linkStats(link, s.clock.Now(), totalClicks(table))
	stats.RecentClicks = recentClicks(link.ClickData, limit)
	return &stats, nil
}

func (s *urlService) linkStats(link *entities.Link, now time.Time, total int) models.LinkStats {
	stats := models.LinkStats{
		Shortcode:   link.Shortcode,
		LongURL:     link.LongURL,
		ShortURL:    s.shortURL(link.Shortcode),
		Created:     link.Created,
		Expiry:      link.Expiry,
		Clicks:      link.Clicks,
		Status:      StatusActive,
		StatusColor: statusColor(link.Expiry, now),
		TimeLeft:    TimeLeft(link.Expiry, now),
	}
	if link.IsExpired(now) {
		stats.Status = StatusExpired
	}
	if total > 0 {
		stats.ClickShare = math.Round(float64(link.Clicks)/float64(total)*1000) / 10
	}
	return stats
}

// TimeLeft renders the remaining lifetime as "1h 5m left", "12m left" or
// "Expired".
func TimeLeft(expiry, now time.Time) string {
	if now.After(expiry) {
		return "Expired"
	}

	left := expiry.Sub(now)
	hours := int(left.Hours())
	minutes := int(left.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm left", hours, minutes)
	}
	return fmt.Sprintf("%dm left", minutes)
}

func statusColor(expiry, now time.Time) string {
	switch {
	case now.After(expiry):
		return ColorError
	case expiry.Sub(now) < time.Hour:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

func totalClicks(table entities.Table) int {
	total := 0
	for _, link := range table {
		total += link.Clicks
	}
	return total
}

func recentClicks(events []entities.ClickEvent, limit int) []entities.ClickEvent {
	n := min(limit, len(events))
	out := make([]entities.ClickEvent, n)
	for i := 0; i < n; i++ {
		out[i] = events[len(events)-1-i]
	}
	return out
}
