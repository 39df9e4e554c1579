package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shortly/internal/clock"
	"shortly/internal/models"
	"shortly/internal/repository"
	"shortly/internal/shortcode"
	"shortly/internal/validation"
)

const defaultRedirectDelay = 2 * time.Second

// ReservedCodes are root path segments served by other routes. A link under
// one of them could never be reached through the redirect route.
var ReservedCodes = []string{"api", "health", "metrics"}

// URLService defines the interface for URL business logic
type URLService interface {
	Shorten(ctx context.Context, entries []models.EntryRequest) (*models.ShortenResponse, error)
	Resolve(ctx context.Context, shortCode, referrer, userAgent string) (*Resolution, error)
	Summary(ctx context.Context) (*models.StatsSummary, error)
	LinkStats(ctx context.Context, shortCode string, limit int) (*models.LinkStats, error)
}

// EventLogger ships events to the remote log collector. *logsink.Sink
// satisfies it.
type EventLogger interface {
	Log(stack, level, pkg, message string)
}

type nopEventLogger struct{}

func (nopEventLogger) Log(string, string, string, string) {}

// Options configures the URL service. Zero values select the defaults.
type Options struct {
	BaseURL                string
	RedirectDelay          time.Duration
	DefaultValidityMinutes int
	Clock                  clock.Clock
	Generator              *shortcode.Generator
	Events                 EventLogger
	Logger                 *zap.Logger
}

type urlService struct {
	repo            repository.TableRepository
	generator       *shortcode.Generator
	clock           clock.Clock
	events          EventLogger
	logger          *zap.Logger
	baseURL         string
	redirectDelay   time.Duration
	defaultValidity int
}

// NewURLService creates a new URL service
func NewURLService(repo repository.TableRepository, opts Options) URLService {
	svc := &urlService{
		repo:            repo,
		generator:       opts.Generator,
		clock:           opts.Clock,
		events:          opts.Events,
		logger:          opts.Logger,
		baseURL:         opts.BaseURL,
		redirectDelay:   opts.RedirectDelay,
		defaultValidity: opts.DefaultValidityMinutes,
	}

	if svc.clock == nil {
		svc.clock = clock.Real{}
	}
	if svc.generator == nil {
		svc.generator = shortcode.NewGeneratorWith(nil, svc.clock)
	}
	if svc.events == nil {
		svc.events = nopEventLogger{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.redirectDelay <= 0 {
		svc.redirectDelay = defaultRedirectDelay
	}
	if svc.defaultValidity <= 0 {
		svc.defaultValidity = validation.DefaultValidityMinutes
	}
	return svc
}

func (s *urlService) shortURL(code string) string {
	return s.baseURL + "/" + code
}
