package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Category picker labels.
const (
	AllCategoriesLabel   = "All"
	CategoryErrorLabel   = "All (error loading)"
	categoriesCacheKey   = "options"
	defaultCategoriesTTL = 5 * time.Minute
)

// CategoryCache stores loaded category lists.
type CategoryCache interface {
	Get(ctx context.Context, key string) ([]domain.Category, bool, error)
	Set(ctx context.Context, key string, categories []domain.Category, ttl time.Duration) error
}

// CategoryService serves the category picker.
type CategoryService struct {
	repo   repository.CategoryRepository
	cache  CategoryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCategoryService builds the service. cache may be nil.
func NewCategoryService(repo repository.CategoryRepository, cache CategoryCache, ttl time.Duration, logger *zap.Logger) *CategoryService {
	if ttl <= 0 {
		ttl = defaultCategoriesTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns categories ordered by title, from the cache when warm.
// Cache failures are logged and bypassed.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, categoriesCacheKey)
		if err != nil {
			s.logger.Warn("category cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, categoriesCacheKey, categories, s.ttl); err != nil {
			s.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

// Options returns the picker entries: "All" followed by every category.
// A failed load yields a single disabled placeholder instead.
func (s *CategoryService) Options(ctx context.Context) []domain.CategoryOption {
	categories, err := s.List(ctx)
	if err != nil {
		s.logger.Warn("category load failed", zap.Error(err))
		return []domain.CategoryOption{{Key: 0, Text: CategoryErrorLabel, Disabled: true}}
	}
	options := make([]domain.CategoryOption, 0, len(categories)+1)
	options = append(options, domain.CategoryOption{Key: 0, Text: AllCategoriesLabel})
	for _, c := range categories {
		options = append(options, domain.CategoryOption{Key: c.ID, Text: c.Title})
	}
	return options
}
