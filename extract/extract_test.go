package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func listingHTML(n int) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div id="grid">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="product-card">
			<h2>Widget %d Deluxe</h2>
			<span class="price">$%d.99</span>
			<span class="was">$%d.99</span>
			<span>4.5 out of 5</span>
			<span>1,%03d reviews</span>
			<img src="/img/widget-%d.jpg" alt="Widget %d Deluxe">
			<a href="/p/widget-%d">View</a>
		</div>`, i, 10+i, 20+i, i, i, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return []byte(b.String())
}

func TestProducts_Listing(t *testing.T) {
	records := Products(listingHTML(10), "https://shop.example.com/widgets?sort=new", 1, 30)

	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "Widget 1 Deluxe" {
		t.Errorf("title = %q, want %q", first.Title, "Widget 1 Deluxe")
	}
	if first.Price != "$11.99" {
		t.Errorf("price = %q, want %q", first.Price, "$11.99")
	}
	if first.OriginalPrice != "$21.99" {
		t.Errorf("original price = %q, want %q", first.OriginalPrice, "$21.99")
	}
	if first.Discount == "" {
		t.Error("expected a discount when original price exceeds price")
	}
	if first.Rating != "4.5" {
		t.Errorf("rating = %q, want %q", first.Rating, "4.5")
	}
	if first.ReviewsCount != "1,001" {
		t.Errorf("reviews = %q, want %q", first.ReviewsCount, "1,001")
	}
	if first.ImageURL != "https://shop.example.com/img/widget-1.jpg" {
		t.Errorf("image url = %q, want absolute URL", first.ImageURL)
	}
	if first.ProductURL != "https://shop.example.com/p/widget-1" {
		t.Errorf("product url = %q, want absolute URL", first.ProductURL)
	}
	if first.Page != 1 {
		t.Errorf("page = %d, want 1", first.Page)
	}
	if len(first.Keywords) == 0 {
		t.Error("expected keywords derived from the title")
	}
}

func TestProducts_MaxPerPage(t *testing.T) {
	records := Products(listingHTML(20), "https://shop.example.com/widgets", 1, 5)
	if len(records) != 5 {
		t.Fatalf("expected cap of 5 records, got %d", len(records))
	}
}

func TestProducts_DeduplicatesRepeatedCards(t *testing.T) {
	html := []byte(`<html><body>
		<div class="product"><h2>Same Widget</h2><span>$9.99</span></div>
		<div class="product"><h2>Same Widget</h2><span>$9.99</span></div>
	</body></html>`)

	records := Products(html, "https://shop.example.com", 1, 30)
	if len(records) != 1 {
		t.Fatalf("expected duplicate card collapsed to 1 record, got %d", len(records))
	}
}

func TestProducts_EmptyPage(t *testing.T) {
	html := []byte(`<html><body><h1>About us</h1><p>We sell things.</p></body></html>`)
	if records := Products(html, "https://shop.example.com/about", 1, 30); len(records) != 0 {
		t.Fatalf("expected no records on a non-listing page, got %d", len(records))
	}
}

func TestProducts_PriceBlockFallback(t *testing.T) {
	// No product markup at all, just priced blocks.
	html := []byte(`<html><body>
		<li>Handmade Mug ₹499</li>
		<li>Ceramic Bowl ₹799</li>
	</body></html>`)

	records := Products(html, "https://shop.example.com", 2, 30)
	if len(records) != 2 {
		t.Fatalf("expected 2 fallback records, got %d", len(records))
	}
	if records[0].Price != "₹499" {
		t.Errorf("price = %q, want %q", records[0].Price, "₹499")
	}
	if records[0].Page != 2 {
		t.Errorf("page = %d, want 2", records[0].Page)
	}
}

func TestProducts_LongTitleTruncatedOnRuneBoundary(t *testing.T) {
	// 201 bytes of title; the byte at the cap sits inside a two-byte rune.
	title := "x" + strings.Repeat("é", 100)
	html := []byte(`<html><body><li>` + title + ` ₹999</li></body></html>`)

	records := Products(html, "https://shop.example.com", 1, 30)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0].Title
	if len(got) > 120 {
		t.Errorf("title is %d bytes, want at most 120", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated title is not valid UTF-8: %q", got)
	}
}

func TestProductsFromJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"bare array", `[{"title":"Widget A","price":"19.99"},{"title":"Widget B","price":29.5}]`, 2},
		{"items envelope", `{"items":[{"name":"Widget C","price":5}]}`, 1},
		{"products envelope", `{"products":[{"title":"Widget D"}],"total":1}`, 1},
		{"numeric price", `[{"title":"Widget E","price":42}]`, 1},
		{"title too short", `[{"title":"ab"}]`, 0},
		{"not a catalog", `{"message":"ok"}`, 0},
		{"invalid json", `{{`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := ProductsFromJSON([]byte(tt.data), 1, 0)
			if len(records) != tt.want {
				t.Fatalf("got %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestProductsFromJSON_FieldMapping(t *testing.T) {
	data := []byte(`[{"name":"Gadget X","price":12.5,"image":"https://cdn.example.com/x.jpg","link":"https://shop.example.com/x","rating":4.2,"reviews":310}]`)

	records := ProductsFromJSON(data, 3, 0)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Title != "Gadget X" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Price != "12.5" {
		t.Errorf("price = %q, want %q", rec.Price, "12.5")
	}
	if rec.Rating != "4.2" {
		t.Errorf("rating = %q, want %q", rec.Rating, "4.2")
	}
	if rec.ReviewsCount != "310" {
		t.Errorf("reviews = %q, want %q", rec.ReviewsCount, "310")
	}
	if rec.Page != 3 {
		t.Errorf("page = %d, want 3", rec.Page)
	}
}

func TestText(t *testing.T) {
	html := []byte(`<html><head><style>p { color: red; }</style></head><body><p>Hello</p> <script>alert(1)</script> <p>world</p></body></html>`)
	got := Text(html)
	if got != "Hello world" {
		t.Fatalf("Text() = %q, want %q", got, "Hello world")
	}
}
