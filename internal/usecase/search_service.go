package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pricelens/backend/internal/domain"
)

// Package-level compiled regex patterns for cache key normalization
var (
	nonWordRegex        = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// minQueryLength is the shortest query worth sending to the providers.
const minQueryLength = 2

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL           time.Duration
	Ranking            RankingConfig
	Batch              BatchConfig
	EnableDebugLogging bool
}

// SearchService runs the full lookup pipeline: remote search, store
// classification, normalization, best-price ranking, display grouping and
// pagination, with a cache in front of the provider.
type SearchService struct {
	provider    domain.SearchProvider
	cache       domain.CacheRepository
	ranking     *RankingService
	batchConfig BatchConfig
	cacheTTL    time.Duration
	debug       bool
}

// NewSearchService creates a new search service with dependencies
func NewSearchService(
	provider domain.SearchProvider,
	cache domain.CacheRepository,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &SearchService{
		provider:    provider,
		cache:       cache,
		ranking:     NewRankingService(config.Ranking),
		batchConfig: config.Batch.withDefaults(),
		cacheTTL:    cacheTTL,
		debug:       config.EnableDebugLogging,
	}
}

// RankedSet is the cacheable result of running one query through the
// classification/ranking pipeline: the full normalized listing plus the
// derived ranking and display groups.
type RankedSet struct {
	Query    string                     `json:"query"`
	Products []domain.NormalizedProduct `json:"products"`
	Ranking  []domain.RankingEntry      `json:"ranking"`
	Groups   []domain.StoreGroup        `json:"groups"`
}

// SearchPage is one page of a ranked set, shaped for the rendering layer.
type SearchPage struct {
	Query      string                     `json:"query"`
	Total      int                        `json:"total"`
	Page       int                        `json:"page"`
	TotalPages int                        `json:"totalPages"`
	Items      []domain.NormalizedProduct `json:"items"`
	Ranking    []domain.RankingEntry      `json:"ranking"`
	Groups     []domain.StoreGroup        `json:"groups"`
}

// ComparePage holds the ranked results for the two sides of a comparison.
type ComparePage struct {
	A *SearchPage `json:"a"`
	B *SearchPage `json:"b"`
}

// ImageOutcome is the result of one image lookup in a fan-out batch. On
// failure Error is populated and the listing fields keep empty defaults.
type ImageOutcome struct {
	Image    string                     `json:"image"`
	Products []domain.NormalizedProduct `json:"products"`
	Ranking  []domain.RankingEntry      `json:"ranking"`
	Error    string                     `json:"error,omitempty"`
}

// Search runs one query through the pipeline and returns the requested
// page. Flow: validate -> check cache -> provider search -> classify and
// normalize -> rank/group -> cache -> paginate.
func (s *SearchService) Search(ctx context.Context, query string, page int) (*SearchPage, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	cacheKey := s.searchCacheKey(query)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if set, ok := cached.(*RankedSet); ok {
			if s.debug {
				log.Printf("[SEARCH] cache hit for %q", query)
			}
			return s.pageOf(set, page), nil
		}
	}

	result, err := s.provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, domain.ErrNoResults
	}

	set := s.buildRankedSet(query, result.Records)

	if err := s.cache.Set(ctx, cacheKey, set, s.cacheTTL); err != nil {
		// A cache write failure is not worth failing the lookup over.
		log.Printf("[SEARCH] cache set failed for %q: %v", query, err)
	}

	return s.pageOf(set, page), nil
}

// Compare runs both sides of a comparison through the pipeline. Either
// side coming back empty is a normal empty page, not a failure.
func (s *SearchService) Compare(ctx context.Context, a, b string) (*ComparePage, error) {
	if err := validateQuery(a); err != nil {
		return nil, err
	}
	if err := validateQuery(b); err != nil {
		return nil, err
	}

	result, err := s.provider.Compare(ctx, a, b)
	if err != nil {
		return nil, err
	}

	return &ComparePage{
		A: s.pageOf(s.buildRankedSet(a, result.A.Records), 1),
		B: s.pageOf(s.buildRankedSet(b, result.B.Records), 1),
	}, nil
}

// BatchSearch runs the sequential-retry strategy over a list of queries,
// feeding each successful lookup through the pipeline. Terminally-failed
// queries are omitted from the results; the batch fails only when nothing
// succeeded.
func (s *SearchService) BatchSearch(
	ctx context.Context,
	queries []string,
	progress ProgressFunc,
) (*SequentialReport[*SearchPage], error) {
	return RunSequential(ctx, s.batchConfig, queries,
		func(ctx context.Context, query string) (*SearchPage, error) {
			return s.Search(ctx, query, 1)
		}, progress)
}

// ImageBatchSearch runs the parallel fan-out strategy over image
// references. Every input yields exactly one outcome in input order; a
// failed lookup yields a placeholder with Error populated instead of
// being dropped.
func (s *SearchService) ImageBatchSearch(ctx context.Context, images []string) ([]ImageOutcome, error) {
	return RunFanOut(ctx, images,
		func(ctx context.Context, image string) (ImageOutcome, error) {
			result, err := s.provider.SearchByImage(ctx, image)
			if err != nil {
				return ImageOutcome{}, err
			}
			products := NormalizeAll(result.Records)
			return ImageOutcome{
				Image:    image,
				Products: s.ranking.FilterNearMinimum(products),
				Ranking:  s.ranking.SelectBestPrices(products),
			}, nil
		},
		func(image string, err error) ImageOutcome {
			return ImageOutcome{
				Image:    image,
				Products: []domain.NormalizedProduct{},
				Ranking:  []domain.RankingEntry{},
				Error:    domain.FailureMessage(err),
			}
		})
}

// buildRankedSet classifies and normalizes raw records and derives the
// ranking and display groups. The display side (Products, Groups) only
// keeps listings near the cheapest qualifying offer; the ranking is
// computed over the full set so every store keeps its best entry.
func (s *SearchService) buildRankedSet(query string, records []domain.RawProductRecord) *RankedSet {
	products := NormalizeAll(records)
	display := s.ranking.FilterNearMinimum(products)

	if s.debug {
		log.Printf("[SEARCH] %q: %d records normalized, %d within price band", query, len(products), len(display))
	}

	return &RankedSet{
		Query:    query,
		Products: display,
		Ranking:  s.ranking.SelectBestPrices(products),
		Groups:   s.ranking.GroupForDisplay(display),
	}
}

// pageOf slices one page out of a ranked set.
func (s *SearchService) pageOf(set *RankedSet, page int) *SearchPage {
	if page < 1 {
		page = 1
	}
	return &SearchPage{
		Query:      set.Query,
		Total:      len(set.Products),
		Page:       page,
		TotalPages: s.ranking.TotalPages(len(set.Products)),
		Items:      s.ranking.Paginate(set.Products, page),
		Ranking:    set.Ranking,
		Groups:     set.Groups,
	}
}

// searchCacheKey builds a normalized cache key for a query.
// Format: "search:{normalized_query}"
func (s *SearchService) searchCacheKey(query string) string {
	return fmt.Sprintf("search:%s", normalizeForCacheKey(query))
}

// normalizeForCacheKey lowercases a string, strips punctuation and
// collapses whitespace so equivalent queries share a cache entry.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonWordRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// validateQuery rejects queries that are empty or too short to search.
func validateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < minQueryLength {
		return domain.ErrInvalidQuery
	}
	return nil
}
