package extract

import (
	"encoding/json"
	"fmt"

	"github.com/use-agent/aurora/models"
)

// itemArrayKeys are the envelope keys catalog APIs commonly use for the
// record list, tried in order.
var itemArrayKeys = []string{"items", "products", "results", "data", "records"}

// ProductsFromJSON extracts product records from a JSON catalog API payload.
// Accepts either a bare array of objects or an envelope object with one of
// the common list keys. At most maxPerPage records are returned (0 = no cap).
func ProductsFromJSON(data []byte, page, maxPerPage int) []models.ProductRecord {
	items := itemArray(data)
	if items == nil {
		return nil
	}

	var records []models.ProductRecord
	for _, raw := range items {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		rec, ok := recordFromObject(obj, page)
		if !ok {
			continue
		}
		records = append(records, rec)
		if maxPerPage > 0 && len(records) == maxPerPage {
			break
		}
	}
	return records
}

func itemArray(data []byte) []json.RawMessage {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil
	}
	for _, key := range itemArrayKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &arr); err == nil {
			return arr
		}
	}
	return nil
}

func recordFromObject(obj map[string]any, page int) (models.ProductRecord, bool) {
	rec := models.ProductRecord{Page: page}

	rec.Title = firstString(obj, "title", "name", "product_name")
	if len(rec.Title) < 3 {
		return rec, false
	}

	rec.Price = firstString(obj, "price", "current_price", "sale_price")
	rec.OriginalPrice = firstString(obj, "original_price", "list_price", "mrp")
	rec.Discount = firstString(obj, "discount", "discount_percent")
	rec.Description = firstString(obj, "description", "summary")
	rec.Category = firstString(obj, "category", "category_name")
	rec.ImageURL = firstString(obj, "image_url", "image", "thumbnail")
	rec.ProductURL = firstString(obj, "product_url", "url", "link")
	rec.Rating = firstString(obj, "rating", "average_rating")
	rec.ReviewsCount = firstString(obj, "reviews_count", "reviews", "review_count")
	rec.Keywords = titleKeywords(rec.Title)

	return rec, true
}

// firstString returns the first present key as a string. Numeric JSON
// values are formatted rather than dropped since APIs return prices and
// ratings as numbers.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			if t == float64(int64(t)) {
				return fmt.Sprintf("%d", int64(t))
			}
			return fmt.Sprintf("%g", t)
		case bool:
			return fmt.Sprintf("%t", t)
		}
	}
	return ""
}
