package controllers_test

import (
	"context"

	"shortly/internal/models"
	"shortly/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockURLService implements service.URLService for testing
type MockURLService struct {
	mock.Mock
}

func (m *MockURLService) Shorten(ctx context.Context, entries []models.EntryRequest) (*models.ShortenResponse, error) {
	args := m.Called(ctx, entries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShortenResponse), args.Error(1)
}

func (m *MockURLService) Resolve(ctx context.Context, shortCode, referrer, userAgent string) (*service.Resolution, error) {
	args := m.Called(ctx, shortCode, referrer, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Resolution), args.Error(1)
}

func (m *MockURLService) Summary(ctx context.Context) (*models.StatsSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatsSummary), args.Error(1)
}

func (m *MockURLService) LinkStats(ctx context.Context, shortCode string, limit int) (*models.LinkStats, error) {
	args := m.Called(ctx, shortCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LinkStats), args.Error(1)
}
