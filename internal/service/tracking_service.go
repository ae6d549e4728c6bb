package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const maskedRun = "****"

// TrackingService serves the anonymous projections: tracking-code lookup
// and the masked public feed. Feed pages are cached in Redis with a short
// TTL; cache trouble degrades to a direct query.
type TrackingService struct {
	complaints repository.ComplaintRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewTrackingService constructs the service. cache may be nil.
func NewTrackingService(complaints repository.ComplaintRepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		complaints: complaints,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// TrackByCode resolves a tracking code to its minimal public view. No
// authorization; the view leaks nothing beyond progress.
func (s *TrackingService) TrackByCode(ctx context.Context, code string) (*domain.TrackingView, error) {
	trimmed := strings.TrimSpace(code)
	cacheKey := "track:v1:" + trimmed
	if view, ok := s.viewCacheGet(ctx, cacheKey); ok {
		return view, nil
	}

	view, err := s.complaints.GetTrackingView(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"tracking_code": code})
		}
		return nil, apperrors.MapError(err)
	}
	s.viewCacheSet(ctx, cacheKey, view)
	return view, nil
}

func (s *TrackingService) viewCacheGet(ctx context.Context, key string) (*domain.TrackingView, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("tracking cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var view domain.TrackingView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, false
	}
	return &view, true
}

func (s *TrackingService) viewCacheSet(ctx context.Context, key string, view *domain.TrackingView) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("tracking cache write failed", zap.Error(err))
	}
}

// PublicFeed returns a page of resolved complaints with masked tracking
// codes and rating aggregates.
func (s *TrackingService) PublicFeed(ctx context.Context, page, pageSize int) ([]domain.FeedItem, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	cacheKey := fmt.Sprintf("feed:v1:p%d:s%d", page, pageSize)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	items, err := s.complaints.ListResolvedFeed(ctx, pageSize, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range items {
		items[i].TrackingCode = MaskTrackingCode(items[i].TrackingCode)
	}
	s.cacheSet(ctx, cacheKey, items)
	return items, nil
}

func (s *TrackingService) cacheGet(ctx context.Context, key string) ([]domain.FeedItem, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("feed cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var items []domain.FeedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (s *TrackingService) cacheSet(ctx context.Context, key string, items []domain.FeedItem) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("feed cache write failed", zap.Error(err))
	}
}

// MaskTrackingCode hides the middle of a tracking code: codes of six or
// fewer characters become a fixed four-asterisk placeholder, longer codes
// keep the first three and last two characters around a fixed four-asterisk
// run regardless of original length.
func MaskTrackingCode(code string) string {
	if len(code) <= 6 {
		return maskedRun
	}
	return code[:3] + maskedRun + code[len(code)-2:]
}
