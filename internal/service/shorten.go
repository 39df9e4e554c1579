package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shortly/internal/entities"
	"shortly/internal/metrics"
	"shortly/internal/models"
	"shortly/internal/shortcode"
	"shortly/internal/validation"
)

// Shorten validates a batch and creates one link per entry. The batch is
// all or nothing: a rejected entry or a failed allocation leaves the table
// untouched.
func (s *urlService) Shorten(ctx context.Context, entries []models.EntryRequest) (*models.ShortenResponse, error) {
	batch, err := validation.ValidateBatchWithDefault(entries, s.defaultValidity)
	if err != nil {
		s.rejectBatch(err)
		return nil, err
	}

	var created []*entities.Link
	err = s.repo.Update(ctx, func(table entities.Table) error {
		// Update may run this more than once
		created = created[:0]

		taken := table.Codes()
		for _, code := range ReservedCodes {
			taken[code] = struct{}{}
		}
		now := s.clock.Now()

		for i, entry := range batch.Entries {
			code, err := s.generator.Generate(entry.Shortcode, taken)
			if err != nil {
				var scErr *shortcode.ShortcodeError
				if errors.As(err, &scErr) {
					return takenShortcode(i, scErr)
				}
				return err
			}
			taken[code] = struct{}{}

			link := &entities.Link{
				LongURL:   entry.LongURL,
				Shortcode: code,
				Created:   now,
				Expiry:    now.Add(time.Duration(entry.ValidityMinutes) * time.Minute),
				ClickData: []entities.ClickEvent{},
			}
			table[code] = link
			created = append(created, link.Clone())
		}
		return nil
	})
	if err != nil {
		var report *validation.Report
		switch {
		case errors.As(err, &report):
			s.rejectBatch(err)
			return nil, err
		case errors.Is(err, entities.ErrShortcodeExhausted):
			s.logger.Error("shortcode allocation exhausted", zap.Int("batch_size", len(entries)))
			s.events.Log("backend", "error", "service", "Failed to allocate a unique shortcode")
			return nil, fmt.Errorf("failed to allocate shortcode: %w", err)
		default:
			s.logger.Error("failed to save links", zap.Error(err))
			s.events.Log("backend", "error", "repository", "Failed to save URL mappings")
			return nil, fmt.Errorf("failed to save links: %w", err)
		}
	}

	resp := &models.ShortenResponse{Links: make([]models.CreatedLink, len(created))}
	for i, link := range created {
		resp.Links[i] = models.CreatedLink{
			Shortcode: link.Shortcode,
			LongURL:   link.LongURL,
			ShortURL:  s.shortURL(link.Shortcode),
			Created:   link.Created,
			Expiry:    link.Expiry,
		}
		s.events.Log("backend", "info", "service",
			fmt.Sprintf("Shortened URL created: %s -> %s", link.LongURL, link.Shortcode))
	}

	metrics.LinksCreated.Add(float64(len(created)))
	s.logger.Info("links created", zap.Int("count", len(created)))
	return resp, nil
}

// takenShortcode reports a custom shortcode that is already present in the
// table.
func takenShortcode(index int, scErr *shortcode.ShortcodeError) error {
	report := &validation.Report{}
	report.Add(&validation.FieldError{
		Index:   index,
		Field:   "shortcode",
		Code:    validation.CodeDuplicateShortcode,
		Reason:  string(scErr.Reason),
		Message: scErr.Error(),
	})
	return report
}

func (s *urlService) rejectBatch(err error) {
	var report *validation.Report
	if !errors.As(err, &report) {
		return
	}

	for _, fe := range report.FieldErrors() {
		metrics.BatchRejections.WithLabelValues(fe.Code).Inc()
	}
	s.logger.Debug("batch rejected", zap.Error(err))
	s.events.Log("backend", "warn", "service", "Rejected shorten batch: "+err.Error())
}
