package catalog

import (
	"strings"
	"time"
)

// Clock supplies the normalization timestamp. Injected so tests control time.
type Clock interface {
	Now() time.Time
}

// Normalizer turns raw product payloads into canonical items.
type Normalizer struct {
	clock Clock
}

// NewNormalizer builds a Normalizer using the given clock.
func NewNormalizer(clock Clock) *Normalizer {
	return &Normalizer{clock: clock}
}

// Normalize produces one Item from a raw product and its canonical page URL.
// Every sub-object is fully populated even when the input is sparse.
func (n *Normalizer) Normalize(p *RawProduct, productURL string) *Item {
	if p == nil {
		p = &RawProduct{}
	}
	blocks := p.DescriptionBlocks
	return &Item{
		Timestamp:     n.clock.Now().Unix(),
		RPC:           asString(p.VendorCode),
		URL:           productURL,
		Title:         assembleTitle(p.Name, Volume(blocks), Color(blocks)),
		MarketingTags: MarketingTags(p.FilterLabels),
		Brand:         Brand(blocks),
		Section:       SectionPath(p.Category),
		PriceData:     Prices(p),
		Stock:         StockInfo(p),
		Assets:        AssetInfo(p),
		Metadata:      BuildMetadata(p),
		Variants:      1,
	}
}

// assembleTitle appends volume and color to the trimmed name unless either is
// already a case-insensitive substring of the base name. Both checks run
// against the base name, not the augmented title, so re-normalizing an
// already-augmented name stays stable. An empty name yields an empty title.
func assembleTitle(name, volume, color string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		return ""
	}
	title := base
	low := strings.ToLower(base)
	if volume != "" && !strings.Contains(low, strings.ToLower(volume)) {
		title += ", " + volume
	}
	if color != "" && !strings.Contains(low, strings.ToLower(color)) {
		title += ", " + color
	}
	return title
}
