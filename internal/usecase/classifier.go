package usecase

import (
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// storeMarker pairs a canonical store with the lowercase substrings that
// identify it in a given signal.
type storeMarker struct {
	store   domain.CanonicalStore
	needles []string
}

// storeNameMarkers match explicit metadata fields (source, store, shop).
// Order matters: the first store whose marker matches wins.
var storeNameMarkers = []storeMarker{
	{domain.StoreAmazon, []string{"amazon"}},
	{domain.StoreRakuten, []string{"rakuten", "楽天"}},
	{domain.StoreYahoo, []string{"yahoo", "ヤフー"}},
}

// storeURLMarkers match product page URLs against known store domains.
var storeURLMarkers = []storeMarker{
	{domain.StoreAmazon, []string{"amazon."}},
	{domain.StoreRakuten, []string{"rakuten.co.jp", "r10s.jp"}},
	{domain.StoreYahoo, []string{"yahoo"}},
}

// storeImageMarkers match image URLs against known CDN domains. Third
// parties may proxy images, so this is the least reliable signal and sits
// at the bottom of the cascade.
var storeImageMarkers = []storeMarker{
	{domain.StoreAmazon, []string{"media-amazon.com", "images-amazon.com", "amazon."}},
	{domain.StoreRakuten, []string{"r10s.jp", "thumbnail.image.rakuten.co.jp", "rakuten.co.jp"}},
	{domain.StoreYahoo, []string{"yimg.jp", "yahoo"}},
}

// ClassifyStore maps a raw record to its canonical store identity.
// Deterministic, total and pure: every record classifies into exactly one
// store, falling back to StoreUnknown.
//
// The cascade tries signals in decreasing order of trust, first match wins:
//  1. the explicit source field
//  2. the store field, then the shop field
//  3. the product URL against store domain markers
//  4. the image URL against store CDN markers
//
// The order is load-bearing: explicit metadata is trusted over inferred URL
// structure, which is trusted over inferred image-CDN structure.
func ClassifyStore(r *domain.RawProductRecord) domain.CanonicalStore {
	if r == nil {
		return domain.StoreUnknown
	}

	if store, ok := matchMarkers(r.Source, storeNameMarkers); ok {
		return store
	}
	if store, ok := matchMarkers(r.Store, storeNameMarkers); ok {
		return store
	}
	if store, ok := matchMarkers(r.Shop, storeNameMarkers); ok {
		return store
	}
	if store, ok := matchMarkers(r.URL, storeURLMarkers); ok {
		return store
	}
	if store, ok := matchMarkers(r.ImageURL, storeImageMarkers); ok {
		return store
	}

	return domain.StoreUnknown
}

// matchMarkers checks a field case-insensitively against a marker set.
func matchMarkers(value string, markers []storeMarker) (domain.CanonicalStore, bool) {
	if value == "" {
		return domain.StoreUnknown, false
	}
	lowered := strings.ToLower(value)
	for _, m := range markers {
		for _, needle := range m.needles {
			if strings.Contains(lowered, needle) {
				return m.store, true
			}
		}
	}
	return domain.StoreUnknown, false
}
