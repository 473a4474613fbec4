package usecase

import (
	"sort"

	"github.com/pricelens/backend/internal/domain"
)

// Display defaults, applied when the config leaves a value unset.
const (
	defaultGroupCap  = 5
	defaultPageSize  = 6
	defaultPriceBand = 0.9
)

// RankingConfig holds configuration for the ranking service
type RankingConfig struct {
	GroupCap  int     // max listings per store in a display group
	PageSize  int     // listings per page for flat pagination
	PriceBand float64 // near-minimum filter band (0.9 keeps prices <= min*1.9)
}

// RankingService produces the global best-price ranking, per-store capped
// display groups and flat pagination over normalized products.
type RankingService struct {
	groupCap  int
	pageSize  int
	priceBand float64
}

// NewRankingService creates a new ranking service with the given configuration
func NewRankingService(config RankingConfig) *RankingService {
	groupCap := config.GroupCap
	if groupCap <= 0 {
		groupCap = defaultGroupCap
	}
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	priceBand := config.PriceBand
	if priceBand <= 0 {
		priceBand = defaultPriceBand
	}

	return &RankingService{
		groupCap:  groupCap,
		pageSize:  pageSize,
		priceBand: priceBand,
	}
}

// SelectBestPrices picks one representative listing per store: the cheapest
// valid offer, earliest-indexed on ties. Amazon listings with a nil or
// non-positive price are excluded first - a zero Amazon price is an
// out-of-stock placeholder, not a real offer. For every other store only
// nil prices are excluded; zero is a legitimate (e.g. free-shipping-bundled)
// price. Output is sorted ascending by price with no duplicate stores.
// A store with no qualifying listing simply contributes no entry.
func (s *RankingService) SelectBestPrices(products []domain.NormalizedProduct) []domain.RankingEntry {
	type candidate struct {
		product domain.NormalizedProduct
		price   float64
		index   int
	}
	best := make(map[domain.CanonicalStore]candidate)
	var order []domain.CanonicalStore

	for i, p := range products {
		if !qualifiesForRanking(p) {
			continue
		}
		price := *p.Price
		current, seen := best[p.Store]
		if !seen {
			best[p.Store] = candidate{product: p, price: price, index: i}
			order = append(order, p.Store)
			continue
		}
		// Strict less-than keeps the earliest-indexed listing on ties.
		if price < current.price {
			best[p.Store] = candidate{product: p, price: price, index: i}
		}
	}

	entries := make([]domain.RankingEntry, 0, len(order))
	for _, store := range order {
		c := best[store]
		entries = append(entries, domain.RankingEntry{
			Store:   store,
			Product: c.product,
			Price:   c.price,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Price < entries[j].Price
	})

	return entries
}

// qualifiesForRanking applies the per-store price validity rule.
func qualifiesForRanking(p domain.NormalizedProduct) bool {
	if p.Price == nil {
		return false
	}
	if p.Store == domain.StoreAmazon && *p.Price <= 0 {
		return false
	}
	return true
}

// GroupForDisplay groups all listings (not just the cheapest) by store,
// truncated to the display cap. Groups appear in order of each store's
// first listing, and listings keep their original relative order within
// a group - no re-sorting.
func (s *RankingService) GroupForDisplay(products []domain.NormalizedProduct) []domain.StoreGroup {
	groups := make(map[domain.CanonicalStore]*domain.StoreGroup)
	var order []domain.CanonicalStore

	for _, p := range products {
		g, ok := groups[p.Store]
		if !ok {
			g = &domain.StoreGroup{Store: p.Store}
			groups[p.Store] = g
			order = append(order, p.Store)
		}
		if len(g.Products) < s.groupCap {
			g.Products = append(g.Products, p)
		}
	}

	result := make([]domain.StoreGroup, 0, len(order))
	for _, store := range order {
		result = append(result, *groups[store])
	}
	return result
}

// Paginate returns the 1-based page of the flat (ungrouped) listing slice.
// A page past the end returns an empty slice, not an error.
func (s *RankingService) Paginate(products []domain.NormalizedProduct, page int) []domain.NormalizedProduct {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * s.pageSize
	if start >= len(products) {
		return []domain.NormalizedProduct{}
	}
	end := start + s.pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

// TotalPages returns ceil(count / pageSize).
func (s *RankingService) TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + s.pageSize - 1) / s.pageSize
}

// FilterNearMinimum keeps priced listings within the configured band of the
// cheapest qualifying offer. Listings without a qualifying price are
// dropped; with no qualifying offers at all the input is returned as is.
func (s *RankingService) FilterNearMinimum(products []domain.NormalizedProduct) []domain.NormalizedProduct {
	minPrice := 0.0
	found := false
	for _, p := range products {
		if !qualifiesForRanking(p) {
			continue
		}
		if !found || *p.Price < minPrice {
			minPrice = *p.Price
			found = true
		}
	}
	if !found {
		return products
	}

	limit := minPrice * (1 + s.priceBand)
	var kept []domain.NormalizedProduct
	for _, p := range products {
		if qualifiesForRanking(p) && *p.Price <= limit {
			kept = append(kept, p)
		}
	}
	return kept
}
