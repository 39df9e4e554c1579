package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shortly/internal/entities"
	"shortly/internal/metrics"
)

// Resolution tells the caller where to send the visitor and how long to
// show the redirect page first.
type Resolution struct {
	Target string
	Delay  time.Duration
	Link   *entities.Link
}

// Resolve looks a shortcode up and records a click when the link is active.
// The click is persisted before Resolve returns. Missing and expired codes
// leave the table untouched.
func (s *urlService) Resolve(ctx context.Context, shortCode, referrer, userAgent string) (*Resolution, error) {
	var resolved *entities.Link
	err := s.repo.Update(ctx, func(table entities.Table) error {
		resolved = nil

		link, ok := table[shortCode]
		if !ok {
			return entities.ErrNotFound
		}

		now := s.clock.Now()
		if link.IsExpired(now) {
			return entities.ErrExpired
		}

		source := referrer
		if source == "" {
			source = entities.DirectSource
		}
		link.RecordClick(entities.ClickEvent{
			Timestamp: now,
			Source:    source,
			Location:  entities.UnknownLocation,
			UserAgent: userAgent,
		})
		resolved = link.Clone()
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, entities.ErrNotFound):
		metrics.Resolutions.WithLabelValues(metrics.OutcomeNotFound).Inc()
		s.events.Log("backend", "warn", "service", "Shortcode not found: "+shortCode)
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, shortCode)
	case errors.Is(err, entities.ErrExpired):
		metrics.Resolutions.WithLabelValues(metrics.OutcomeExpired).Inc()
		s.events.Log("backend", "warn", "service", "Shortcode expired: "+shortCode)
		return nil, fmt.Errorf("%w: %s", entities.ErrExpired, shortCode)
	default:
		metrics.Resolutions.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("failed to record click", zap.String("shortcode", shortCode), zap.Error(err))
		s.events.Log("backend", "error", "repository", "Failed to record click for "+shortCode)
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	metrics.Resolutions.WithLabelValues(metrics.OutcomeRedirected).Inc()
	s.events.Log("backend", "info", "service",
		fmt.Sprintf("Redirecting %s to %s", shortCode, resolved.LongURL))

	return &Resolution{
		Target: resolved.LongURL,
		Delay:  s.redirectDelay,
		Link:   resolved,
	}, nil
}
