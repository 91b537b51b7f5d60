package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

type sectionSearcher interface {
	Search(ctx context.Context, filter models.CourseFilter) ([]models.SectionInfo, int, error)
}

// CatalogService serves course catalog searches with a read-through cache.
type CatalogService struct {
	sections sectionSearcher
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(sections sectionSearcher, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CatalogService{sections: sections, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

type catalogPage struct {
	Sections []models.SectionInfo `json:"sections"`
	Total    int                  `json:"total"`
}

// Search returns catalog sections matching the filter.
func (s *CatalogService) Search(ctx context.Context, filter models.CourseFilter) ([]models.SectionInfo, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 25
	}

	cacheKey := catalogCacheKey(filter)
	if s.cache != nil && s.cache.Enabled() {
		var page catalogPage
		if hit, err := s.cache.Get(ctx, cacheKey, &page); err == nil && hit {
			return page.Sections, s.pagination(filter, page.Total), nil
		}
	}

	sections, total, err := s.sections.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "catalog search failed")
	}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, catalogPage{Sections: sections, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return sections, s.pagination(filter, total), nil
}

func (s *CatalogService) pagination(filter models.CourseFilter, total int) *models.Pagination {
	return &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
}

func catalogCacheKey(filter models.CourseFilter) string {
	return fmt.Sprintf("catalog:%s:%s:%s:%d:%d", filter.Term, filter.Subject, filter.Search, filter.Page, filter.PageSize)
}
