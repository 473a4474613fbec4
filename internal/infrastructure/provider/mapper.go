package provider

import (
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// Wire shapes for the aggregator API. Listing fields are deliberately
// loose: the upstream stores disagree on field names and types, and that
// mess is resolved here and in the normalizer, not at the JSON layer.

type searchResponse struct {
	Query string `json:"query"`
	Items []item `json:"items"`
}

type compareResponse struct {
	A searchResponse `json:"a"`
	B searchResponse `json:"b"`
}

type imageResponse struct {
	Image string `json:"image"`
	Items []item `json:"items"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type item struct {
	Title          string         `json:"title"`
	Price          any            `json:"price"`
	URL            string         `json:"url"`
	ImageURL       string         `json:"imageUrl"`
	Store          string         `json:"store"`
	Source         string         `json:"source"`
	Shop           string         `json:"shop"`
	ASIN           string         `json:"asin"`
	JAN            string         `json:"jan"`
	JANCode        string         `json:"janCode"`
	SearchTerm     string         `json:"searchTerm"`
	AdditionalInfo additionalInfo `json:"additionalInfo"`
}

type additionalInfo struct {
	SearchedByJAN   bool   `json:"searchedByJan"`
	ModelNumberUsed string `json:"modelNumberUsed"`
}

// mapRecords converts wire items into raw product records.
func mapRecords(items []item) []domain.RawProductRecord {
	records := make([]domain.RawProductRecord, 0, len(items))
	for _, it := range items {
		records = append(records, mapRecord(it))
	}
	return records
}

// mapRecord folds the two JAN spellings into one field and tidies the
// image URL; everything else passes through untouched.
func mapRecord(it item) domain.RawProductRecord {
	jan := it.JANCode
	if jan == "" {
		jan = it.JAN
	}

	return domain.RawProductRecord{
		Title:      it.Title,
		Price:      it.Price,
		URL:        it.URL,
		ImageURL:   normalizeImageURL(it.ImageURL),
		Store:      it.Store,
		Source:     it.Source,
		Shop:       it.Shop,
		ASIN:       it.ASIN,
		JANCode:    jan,
		SearchTerm: it.SearchTerm,
		AdditionalInfo: domain.AdditionalInfo{
			SearchedByJAN:   it.AdditionalInfo.SearchedByJAN,
			ModelNumberUsed: it.AdditionalInfo.ModelNumberUsed,
		},
	}
}

// normalizeImageURL upgrades plain-http image links and asks the Rakuten
// thumbnail CDN for a usable size.
func normalizeImageURL(imageURL string) string {
	if imageURL == "" {
		return ""
	}

	if strings.HasPrefix(imageURL, "http:") {
		imageURL = "https:" + strings.TrimPrefix(imageURL, "http:")
	}

	if strings.Contains(imageURL, "thumbnail.image.rakuten.co.jp") && !strings.Contains(imageURL, "_ex=") {
		sep := "?"
		if strings.Contains(imageURL, "?") {
			sep = "&"
		}
		imageURL += sep + "_ex=300x300"
	}

	return imageURL
}
