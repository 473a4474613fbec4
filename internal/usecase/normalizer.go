package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// Normalize converts a raw record plus its classification into a canonical
// product value. Pure mapping: the caller's record is never mutated, and a
// missing or unparseable price stays absent rather than being coerced to
// zero (zero is a meaningful price, see SelectBestPrices).
func Normalize(r *domain.RawProductRecord, store domain.CanonicalStore) domain.NormalizedProduct {
	if r == nil {
		return domain.NormalizedProduct{Store: store}
	}
	return domain.NormalizedProduct{
		Store:      store,
		Title:      cleanText(r.Title),
		Price:      ParsePrice(r.Price),
		URL:        r.URL,
		ImageURL:   r.ImageURL,
		IsJANMatch: r.AdditionalInfo.SearchedByJAN,
		Raw:        r,
	}
}

// NormalizeAll classifies and normalizes a slice of raw records, preserving
// input order.
func NormalizeAll(records []domain.RawProductRecord) []domain.NormalizedProduct {
	products := make([]domain.NormalizedProduct, 0, len(records))
	for i := range records {
		r := &records[i]
		products = append(products, Normalize(r, ClassifyStore(r)))
	}
	return products
}

// ParsePrice extracts a price from the loose value providers return.
// Accepts numeric JSON values and noisy strings like "¥1,280" or "1,280円".
// Returns nil for anything that does not contain a usable number.
func ParsePrice(v any) *float64 {
	switch price := v.(type) {
	case nil:
		return nil
	case float64:
		return &price
	case float32:
		f := float64(price)
		return &f
	case int:
		f := float64(price)
		return &f
	case int64:
		f := float64(price)
		return &f
	case json.Number:
		f, err := price.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		return parsePriceString(price)
	default:
		return nil
	}
}

// parsePriceString strips currency symbols and separators and keeps the
// digits. "¥1,280" and "1,280円" both parse to 1280.
func parsePriceString(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var digits strings.Builder
	seenDot := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits.WriteRune(c)
		case c == '.' && !seenDot && digits.Len() > 0:
			seenDot = true
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return nil
	}

	f, err := strconv.ParseFloat(strings.TrimSuffix(digits.String(), "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

// cleanText collapses runs of whitespace and trims the result.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
