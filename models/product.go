package models

import "strconv"

// ProductRecord is the normalized output unit for one extracted listing.
// Title is the only required field; everything else is best-effort.
type ProductRecord struct {
	Title         string            `json:"title"`
	Price         string            `json:"price,omitempty"`
	OriginalPrice string            `json:"original_price,omitempty"`
	Discount      string            `json:"discount,omitempty"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Keywords      []string          `json:"keywords,omitempty"`
	ImageURL      string            `json:"image_url,omitempty"`
	ProductURL    string            `json:"product_url,omitempty"`
	Rating        string            `json:"rating,omitempty"`
	ReviewsCount  string            `json:"reviews_count,omitempty"`
	Page          int               `json:"page"`

	// Extra carries fields outside the canonical schema, e.g. route or
	// operator on travel listings returned by the OCR extractor.
	Extra map[string]string `json:"extra,omitempty"`
}

// canonicalColumns is the fixed column ordering for the tabular projection.
// Extra fields are appended after these, sorted by name.
var canonicalColumns = []string{
	"title", "price", "original_price", "discount", "description",
	"category", "keywords", "image_url", "product_url", "rating",
	"reviews_count", "page",
}

// Fields flattens the record into column name -> cell value.
// Empty canonical fields are omitted so the projection can union only the
// columns that actually occur.
func (r *ProductRecord) Fields() map[string]string {
	m := make(map[string]string, 12+len(r.Extra))
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("title", r.Title)
	put("price", r.Price)
	put("original_price", r.OriginalPrice)
	put("discount", r.Discount)
	put("description", r.Description)
	put("category", r.Category)
	put("keywords", joinKeywords(r.Keywords))
	put("image_url", r.ImageURL)
	put("product_url", r.ProductURL)
	put("rating", r.Rating)
	put("reviews_count", r.ReviewsCount)
	if r.Page > 0 {
		m["page"] = strconv.Itoa(r.Page)
	}
	for k, v := range r.Extra {
		if v == "" {
			continue
		}
		// Canonical columns win over same-named extras.
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

func joinKeywords(kw []string) string {
	switch len(kw) {
	case 0:
		return ""
	case 1:
		return kw[0]
	}
	out := kw[0]
	for _, k := range kw[1:] {
		out += ", " + k
	}
	return out
}
