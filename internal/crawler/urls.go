package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoints builds the upstream API and product-page URLs. The bases are
// configurable so tests can point the spider at a local server.
type Endpoints struct {
	APIBase  string
	SiteBase string
}

// CityURL builds the session-cookie request URL.
func (e Endpoints) CityURL(cityUUID string) string {
	q := url.Values{}
	q.Set("city_uuid", cityUUID)
	return fmt.Sprintf("%s/city?%s", strings.TrimRight(e.APIBase, "/"), q.Encode())
}

// ListingURL builds a catalog page request URL.
func (e Endpoints) ListingURL(cityUUID, rootCategorySlug string, page, perPage int) string {
	q := url.Values{}
	q.Set("city_uuid", cityUUID)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("root_category_slug", rootCategorySlug)
	return fmt.Sprintf("%s/product?%s", strings.TrimRight(e.APIBase, "/"), q.Encode())
}

// DetailURL builds a product detail request URL.
func (e Endpoints) DetailURL(cityUUID, slug string) string {
	q := url.Values{}
	q.Set("city_uuid", cityUUID)
	return fmt.Sprintf("%s/product/%s?%s", strings.TrimRight(e.APIBase, "/"), slug, q.Encode())
}

// ProductPageURL builds the canonical product page URL emitted on items.
func (e Endpoints) ProductPageURL(categorySlug, slug string) string {
	return fmt.Sprintf("%s/product/%s/%s", strings.TrimRight(e.SiteBase, "/"), categorySlug, slug)
}

// CategorySlug derives a category slug from a catalog URL: the path segment
// immediately following a literal "catalog" segment. Returns "" when the URL
// does not contain one.
func CategorySlug(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "catalog" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}
