package domain

// CanonicalStore is the normalized store identity used throughout
// ranking and grouping. Classification is total: every record maps to
// exactly one of these values.
type CanonicalStore string

// Canonical store constants.
const (
	StoreAmazon  CanonicalStore = "Amazon"
	StoreRakuten CanonicalStore = "Rakuten"
	StoreYahoo   CanonicalStore = "Yahoo"
	StoreUnknown CanonicalStore = "Unknown"
)

// AdditionalInfo carries provider-specific extras attached to a raw record.
type AdditionalInfo struct {
	SearchedByJAN   bool   `json:"searchedByJan,omitempty"`
	ModelNumberUsed string `json:"modelNumberUsed,omitempty"`
}

// RawProductRecord is a loosely-typed product listing as returned by the
// search providers. Any field may be empty; Price may be a number, a noisy
// string like "¥1,280", or absent entirely. The engine never mutates a
// record in place - it produces new normalized values.
type RawProductRecord struct {
	Title          string         `json:"title,omitempty"`
	Price          any            `json:"price,omitempty"`
	URL            string         `json:"url,omitempty"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Store          string         `json:"store,omitempty"`
	Source         string         `json:"source,omitempty"`
	Shop           string         `json:"shop,omitempty"`
	ASIN           string         `json:"asin,omitempty"`
	JANCode        string         `json:"janCode,omitempty"`
	SearchTerm     string         `json:"searchTerm,omitempty"`
	AdditionalInfo AdditionalInfo `json:"additionalInfo,omitempty"`
}

// NormalizedProduct is the canonical product value produced by the
// normalizer. Immutable once created. Price is nil when the raw record
// carried no parseable price; zero is a distinct, legitimate value.
type NormalizedProduct struct {
	Store      CanonicalStore    `json:"store"`
	Title      string            `json:"title"`
	Price      *float64          `json:"price,omitempty"`
	URL        string            `json:"url"`
	ImageURL   string            `json:"imageUrl"`
	IsJANMatch bool              `json:"isJanMatch"`
	Raw        *RawProductRecord `json:"-"`
}

// RankingEntry is one store's representative listing in the global
// best-price ranking. At most one entry per store.
type RankingEntry struct {
	Store   CanonicalStore    `json:"store"`
	Product NormalizedProduct `json:"product"`
	Price   float64           `json:"price"`
}

// StoreGroup is a per-store display group. Products keep their original
// relative order and are truncated to the configured display cap.
type StoreGroup struct {
	Store    CanonicalStore      `json:"store"`
	Products []NormalizedProduct `json:"products"`
}

// SearchResult is the raw payload returned by the remote search provider
// for a single query.
type SearchResult struct {
	Query   string             `json:"query"`
	Records []RawProductRecord `json:"records"`
}

// ComparisonResult holds the raw listings for the two sides of a
// product comparison.
type ComparisonResult struct {
	A SearchResult `json:"a"`
	B SearchResult `json:"b"`
}

// ImageSearchResult is the raw payload for one image lookup. Error is
// populated on the placeholder emitted when a fan-out lookup fails; all
// other fields then keep their empty defaults.
type ImageSearchResult struct {
	Image   string             `json:"image"`
	Records []RawProductRecord `json:"records"`
	Error   string             `json:"error,omitempty"`
}
