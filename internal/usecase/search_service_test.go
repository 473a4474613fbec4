package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// fakeProvider scripts SearchProvider responses for pipeline tests.
type fakeProvider struct {
	mu          sync.Mutex
	searchCalls int
	records     map[string][]domain.RawProductRecord
	failQueries map[string]error
	failImages  map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		records:     make(map[string][]domain.RawProductRecord),
		failQueries: make(map[string]error),
		failImages:  make(map[string]error),
	}
}

func (f *fakeProvider) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	if err, ok := f.failQueries[query]; ok {
		return nil, err
	}
	return &domain.SearchResult{Query: query, Records: f.records[query]}, nil
}

func (f *fakeProvider) Compare(ctx context.Context, a, b string) (*domain.ComparisonResult, error) {
	return &domain.ComparisonResult{
		A: domain.SearchResult{Query: a, Records: f.records[a]},
		B: domain.SearchResult{Query: b, Records: f.records[b]},
	}, nil
}

func (f *fakeProvider) SearchByImage(ctx context.Context, image string) (*domain.ImageSearchResult, error) {
	if err, ok := f.failImages[image]; ok {
		return nil, err
	}
	return &domain.ImageSearchResult{Image: image, Records: f.records[image]}, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

// fakeCache is a minimal CacheRepository for pipeline tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]interface{})}
}

func (f *fakeCache) Get(ctx context.Context, key string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func testRecords() []domain.RawProductRecord {
	return []domain.RawProductRecord{
		{Source: "Amazon", Title: "EA628W-25B", Price: float64(3200), URL: "https://www.amazon.co.jp/dp/B0001"},
		{Source: "Rakuten", Title: "EA628W-25B 互換", Price: "¥2,980", URL: "https://item.rakuten.co.jp/s/1"},
		{Source: "Yahoo", Title: "EA628W-25B", Price: float64(3100)},
		{Title: "no-name listing"},
	}
}

func newTestService(provider *fakeProvider) *SearchService {
	return NewSearchService(provider, newFakeCache(), SearchServiceConfig{
		Batch: BatchConfig{MaxAttempts: 3, Backoff: 5 * time.Millisecond},
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects queries that are too short", func(t *testing.T) {
		provider := newFakeProvider()
		svc := newTestService(provider)

		_, err := svc.Search(ctx, " a ", 1)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("error = %v, want ErrInvalidQuery", err)
		}
		if provider.calls() != 0 {
			t.Error("invalid query must not reach the provider")
		}
	})

	t.Run("runs the full pipeline", func(t *testing.T) {
		provider := newFakeProvider()
		provider.records["EA628W-25B"] = testRecords()
		svc := newTestService(provider)

		page, err := svc.Search(ctx, "EA628W-25B", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.Total != 3 {
			t.Errorf("Total = %d, want 3 (unpriced listing filtered from display)", page.Total)
		}
		if page.TotalPages != 1 {
			t.Errorf("TotalPages = %d, want 1", page.TotalPages)
		}
		if len(page.Ranking) != 3 {
			t.Fatalf("ranking len = %d, want 3 (unknown store has no price)", len(page.Ranking))
		}
		if page.Ranking[0].Store != domain.StoreRakuten || page.Ranking[0].Price != 2980 {
			t.Errorf("ranking[0] = %v/%v, want Rakuten/2980", page.Ranking[0].Store, page.Ranking[0].Price)
		}
		if len(page.Groups) != 3 {
			t.Errorf("groups len = %d, want 3", len(page.Groups))
		}
	})

	t.Run("filters listings far above the cheapest offer", func(t *testing.T) {
		provider := newFakeProvider()
		provider.records["EA628W-25B"] = []domain.RawProductRecord{
			{Source: "Rakuten", Title: "EA628W-25B", Price: float64(1000)},
			{Source: "Yahoo", Title: "EA628W-25B", Price: float64(1500)},
			{Source: "Amazon", Title: "EA628W-25B collector box", Price: float64(10000)},
		}
		svc := newTestService(provider)

		page, err := svc.Search(ctx, "EA628W-25B", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 10000 > 1000*1.9: gone from the displayed page and groups.
		if page.Total != 2 {
			t.Errorf("Total = %d, want 2", page.Total)
		}
		if len(page.Groups) != 2 {
			t.Errorf("groups len = %d, want 2", len(page.Groups))
		}
		for _, g := range page.Groups {
			if g.Store == domain.StoreAmazon {
				t.Error("out-of-band Amazon listing must not be displayed")
			}
		}
		// The ranking still carries every store's best offer.
		if len(page.Ranking) != 3 {
			t.Fatalf("ranking len = %d, want 3", len(page.Ranking))
		}
		if page.Ranking[2].Store != domain.StoreAmazon || page.Ranking[2].Price != 10000 {
			t.Errorf("ranking[2] = %v/%v, want Amazon/10000", page.Ranking[2].Store, page.Ranking[2].Price)
		}
	})

	t.Run("serves repeat queries from cache", func(t *testing.T) {
		provider := newFakeProvider()
		provider.records["EA715SE-10"] = testRecords()
		svc := newTestService(provider)

		if _, err := svc.Search(ctx, "EA715SE-10", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Search(ctx, "ea715se-10", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if provider.calls() != 1 {
			t.Errorf("provider calls = %d, want 1 (second lookup cached)", provider.calls())
		}
	})

	t.Run("returns no-results error for empty provider response", func(t *testing.T) {
		provider := newFakeProvider()
		svc := newTestService(provider)

		_, err := svc.Search(ctx, "nothing here", 1)
		if !errors.Is(err, domain.ErrNoResults) {
			t.Errorf("error = %v, want ErrNoResults", err)
		}
	})
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	provider.records["EA628W-25B"] = testRecords()
	svc := newTestService(provider)

	result, err := svc.Compare(ctx, "EA628W-25B", "EA715SE-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.A.Total != 3 {
		t.Errorf("A.Total = %d, want 3", result.A.Total)
	}
	// The other side had no listings; an empty page is not a failure.
	if result.B.Total != 0 {
		t.Errorf("B.Total = %d, want 0", result.B.Total)
	}
	if result.B.TotalPages != 0 {
		t.Errorf("B.TotalPages = %d, want 0", result.B.TotalPages)
	}
}

func TestBatchSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("drops failed queries and keeps the rest", func(t *testing.T) {
		provider := newFakeProvider()
		provider.records["good one"] = testRecords()
		provider.records["good two"] = testRecords()
		provider.failQueries["broken"] = &domain.ProviderError{
			StatusCode: 500,
			Message:    "store backend exploded",
		}
		svc := newTestService(provider)

		report, err := svc.BatchSearch(ctx, []string{"good one", "broken", "good two"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.Results) != 2 {
			t.Fatalf("results len = %d, want 2", len(report.Results))
		}
		if report.Results[0].Query != "good one" || report.Results[1].Query != "good two" {
			t.Errorf("results out of order: %q, %q", report.Results[0].Query, report.Results[1].Query)
		}
		if report.Items[1].Error != "store backend exploded" {
			t.Errorf("failed item message = %q, want the payload message", report.Items[1].Error)
		}
		if report.Items[1].Attempts != 3 {
			t.Errorf("failed item attempts = %d, want 3", report.Items[1].Attempts)
		}
	})
}

func TestImageBatchSearch(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	provider.records["shelf1.jpg"] = testRecords()
	provider.records["shelf3.jpg"] = testRecords()
	provider.failImages["blurry.jpg"] = fmt.Errorf("image too blurry")
	svc := newTestService(provider)

	outcomes, err := svc.ImageBatchSearch(ctx, []string{"shelf1.jpg", "blurry.jpg", "shelf3.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcomes) != 3 {
		t.Fatalf("len = %d, want 3", len(outcomes))
	}
	if outcomes[0].Image != "shelf1.jpg" || len(outcomes[0].Products) != 3 {
		t.Errorf("outcomes[0] = %+v, want real result", outcomes[0])
	}
	if outcomes[1].Error != "image too blurry" {
		t.Errorf("outcomes[1].Error = %q, want populated error", outcomes[1].Error)
	}
	if outcomes[1].Products == nil || len(outcomes[1].Products) != 0 {
		t.Error("placeholder must keep empty defaults for listing fields")
	}
	if outcomes[2].Image != "shelf3.jpg" {
		t.Errorf("outcomes[2].Image = %q, order must match input", outcomes[2].Image)
	}
}
