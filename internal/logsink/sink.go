// Package logsink ships structured log events to the remote log collector.
// Events are validated against fixed allow-lists before they are queued;
// rejected events and transmission failures are reported on the local
// fallback logger and never returned to the caller.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 256
	defaultTimeout    = 5 * time.Second
	maxErrorBody      = 4 << 10
)

var (
	validStacks           = []string{"frontend", "backend"}
	validLevels           = []string{"debug", "info", "warn", "error", "fatal"}
	validFrontendPackages = []string{"component", "hook", "page", "state", "style"}
	validBackendPackages  = []string{"cache", "controller", "cron_job", "db", "domain", "handler", "repository", "route", "service"}
	validBothPackages     = []string{"auth", "config", "middleware", "utils"}
)

var (
	ErrInvalidStack   = errors.New("invalid stack")
	ErrInvalidLevel   = errors.New("invalid level")
	ErrInvalidPackage = errors.New("invalid package")
)

// Event is the payload accepted by the collector
type Event struct {
	Stack   string `json:"stack"`
	Level   string `json:"level"`
	Package string `json:"package"`
	Message string `json:"message"`
}

// NewEvent lower-cases and validates the event fields
func NewEvent(stack, level, pkg, message string) (Event, error) {
	ev := Event{
		Stack:   strings.ToLower(stack),
		Level:   strings.ToLower(level),
		Package: strings.ToLower(pkg),
		Message: message,
	}

	if !contains(validStacks, ev.Stack) {
		return Event{}, fmt.Errorf("%w: %s. Must be one of: %s", ErrInvalidStack, stack, strings.Join(validStacks, ", "))
	}
	if !contains(validLevels, ev.Level) {
		return Event{}, fmt.Errorf("%w: %s. Must be one of: %s", ErrInvalidLevel, level, strings.Join(validLevels, ", "))
	}

	packages := PackagesFor(ev.Stack)
	if !contains(packages, ev.Package) {
		return Event{}, fmt.Errorf("%w: %s for stack: %s. Must be one of: %s",
			ErrInvalidPackage, pkg, stack, strings.Join(packages, ", "))
	}

	return ev, nil
}

// PackagesFor returns the packages allowed for a stack
func PackagesFor(stack string) []string {
	var packages []string
	switch stack {
	case "frontend":
		packages = append(packages, validFrontendPackages...)
	case "backend":
		packages = append(packages, validBackendPackages...)
	}
	return append(packages, validBothPackages...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Sink. Zero values select the defaults.
type Config struct {
	URL        string
	Token      string
	DevMode    bool
	BufferSize int
	Timeout    time.Duration
	Client     Doer
}

// Sink queues validated events and delivers them from a background worker.
type Sink struct {
	url     string
	token   string
	dev     bool
	timeout time.Duration
	client  Doer
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// New creates a sink and starts its delivery worker. The logger is the
// fallback channel for rejected events and delivery failures.
func New(cfg Config, logger *zap.Logger) *Sink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sink{
		url:     cfg.URL,
		token:   cfg.Token,
		dev:     cfg.DevMode,
		timeout: cfg.Timeout,
		client:  cfg.Client,
		logger:  logger.Named("logsink"),
		now:     time.Now,
		queue:   make(chan Event, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	go s.run()
	return s
}

// Log validates the event and queues it for delivery. It never blocks and
// never fails; problems are written to the fallback logger.
func (s *Sink) Log(stack, level, pkg, message string) {
	ev, err := NewEvent(stack, level, pkg, message)
	if err != nil {
		s.logger.Error("rejected log event", zap.Error(err))
		return
	}

	if s.token == "" {
		s.logger.Error("authentication token not configured, log event dropped",
			zap.String("package", ev.Package), zap.String("message", ev.Message))
		return
	}
	if tokenExpired(s.token, s.now()) {
		s.logger.Warn("authentication token expired, log event dropped",
			zap.String("package", ev.Package), zap.String("message", ev.Message))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("sink closed, log event dropped", zap.String("message", ev.Message))
		return
	}

	select {
	case s.queue <- ev:
	default:
		s.logger.Warn("log queue full, event dropped", zap.String("message", ev.Message))
	}
}

// Send transmits one event synchronously.
func (s *Sink) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode log event: %w", err)
	}

	if s.dev {
		s.logger.Debug("sending log", zap.Any("payload", ev))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build log request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("log request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("log submission failed: %d - %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	if s.dev {
		var result struct {
			LogID string `json:"logID"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		if result.LogID == "" {
			result.LogID = "no-id"
		}
		s.logger.Debug("log sent", zap.Any("payload", ev), zap.String("log_id", result.LogID))
	}

	return nil
}

// Close stops accepting events and waits until queued events are delivered
// or ctx is done.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) run() {
	defer close(s.done)

	for ev := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.Send(ctx, ev); err != nil {
			s.logger.Error("log delivery failed", zap.Error(err), zap.Any("payload", ev))
		}
		cancel()
	}
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}
