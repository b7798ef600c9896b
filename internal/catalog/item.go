package catalog

// Item is the canonical record emitted for each successfully parsed product
// detail. It is constructed fresh per response and never mutated afterwards.
type Item struct {
	Timestamp     int64     `json:"timestamp"`
	RPC           string    `json:"RPC"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	MarketingTags []string  `json:"marketing_tags"`
	Brand         string    `json:"brand"`
	Section       []string  `json:"section"`
	PriceData     PriceData `json:"price_data"`
	Stock         Stock     `json:"stock"`
	Assets        Assets    `json:"assets"`
	Metadata      *Metadata `json:"metadata"`
	Variants      int       `json:"variants"`
}

// PriceData carries the current/original price pair and the derived sale tag.
type PriceData struct {
	Current  float64 `json:"current"`
	Original float64 `json:"original"`
	SaleTag  string  `json:"sale_tag"`
}

// Stock reports availability. InStock passes the raw `available` value
// through unchanged, preserving its truthy/null semantics.
type Stock struct {
	InStock any `json:"in_stock"`
	Count   int `json:"count"`
}

// Assets lists product media. The upstream API only exposes a single image;
// view360 and video are always empty.
type Assets struct {
	MainImage string   `json:"main_image"`
	SetImages []string `json:"set_images"`
	View360   []string `json:"view360"`
	Video     []string `json:"video"`
}
