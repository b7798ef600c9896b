package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Attribute block codes with dedicated extraction rules.
const (
	codeColor  = "cvet"
	codeVolume = "obem"
	codeBrand  = "brend"
)

// maxSectionDepth bounds the parent-chain walk. The payload should never nest
// this deep; the cap guards against cyclic input.
const maxSectionDepth = 10

// marketingFilters is the allow-set of filter_labels included as tags.
var marketingFilters = map[string]struct{}{
	"dopolnitelno":      {},
	"tovary-so-skidkoi": {},
}

// Color returns the first enumerated value of the color block, or "".
func Color(blocks []AttributeBlock) string {
	for _, b := range blocks {
		if strings.ToLower(b.Code) != codeColor {
			continue
		}
		if len(b.Values) > 0 && b.Values[0].Name != "" {
			return b.Values[0].Name
		}
	}
	return ""
}

// Volume returns "{min}{unit}" from the volume block, or "". The minimum is
// rendered exactly as the API sent it.
func Volume(blocks []AttributeBlock) string {
	for _, b := range blocks {
		if strings.ToLower(b.Code) != codeVolume {
			continue
		}
		if b.Min != nil {
			return asString(b.Min) + b.Unit
		}
	}
	return ""
}

// Brand returns the first enumerated value of the brand block, or "".
func Brand(blocks []AttributeBlock) string {
	for _, b := range blocks {
		if strings.ToLower(b.Code) != codeBrand {
			continue
		}
		if len(b.Values) > 0 && b.Values[0].Name != "" {
			return b.Values[0].Name
		}
	}
	return ""
}

// MarketingTags collects titles of allow-listed filter labels in source
// order. Duplicates are kept.
func MarketingTags(labels []FilterLabel) []string {
	tags := []string{}
	for _, l := range labels {
		if _, ok := marketingFilters[l.Filter]; ok {
			tags = append(tags, l.Title)
		}
	}
	return tags
}

// SectionPath walks the category parent chain and returns non-empty names in
// root-to-leaf order. The walk is capped at maxSectionDepth hops.
func SectionPath(node *CategoryNode) []string {
	names := []string{}
	for hops := 0; node != nil && hops < maxSectionDepth; hops++ {
		if nm := strings.TrimSpace(node.Name); nm != "" {
			names = append(names, nm)
		}
		node = node.Parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// Prices derives the price pair and sale tag. A missing or malformed current
// price defaults to zero; a missing previous price means no discount.
func Prices(p *RawProduct) PriceData {
	current, ok := asFloat(p.Price)
	if !ok {
		current = 0
	}
	original := current
	if truthy(p.PrevPrice) {
		if prev, ok := asFloat(p.PrevPrice); ok {
			original = prev
		}
	}
	saleTag := ""
	if original > 0 && current < original {
		discount := int(math.Round((original - current) * 100 / original))
		saleTag = fmt.Sprintf("Скидка %d%%", discount)
	}
	return PriceData{Current: current, Original: original, SaleTag: saleTag}
}

// StockInfo passes `available` through unchanged and parses the quantity,
// defaulting to zero when missing or non-numeric.
func StockInfo(p *RawProduct) Stock {
	count, ok := asInt(p.QuantityTotal)
	if !ok {
		count = 0
	}
	return Stock{InStock: p.Available, Count: count}
}

// AssetInfo builds the media section. set_images always contains the main
// image, even when it is empty; this matches the upstream contract.
func AssetInfo(p *RawProduct) Assets {
	main := p.ImageURL
	return Assets{
		MainImage: main,
		SetImages: []string{main},
		View360:   []string{},
		Video:     []string{},
	}
}

// Description returns the trimmed content of the first text block, or "".
func Description(blocks []TextBlock) string {
	if len(blocks) > 0 {
		return strings.TrimSpace(blocks[0].Content)
	}
	return ""
}

// BuildMetadata flattens description blocks into an ordered key/value map.
// Enumerated values win over numeric ranges, units are appended when not
// already present, and the synthetic article/product-code keys always land
// last, displacing same-named block keys.
func BuildMetadata(p *RawProduct) *Metadata {
	md := NewMetadata()
	md.Set("__description", Description(p.TextBlocks))
	for _, b := range p.DescriptionBlocks {
		title := strings.TrimSpace(b.Title)
		if title == "" {
			continue
		}
		value := blockValue(b)
		if value == "" {
			continue
		}
		md.Set(title, value)
	}
	if p.VendorCode != nil {
		md.SetLast("Артикул", asString(p.VendorCode))
	}
	if strings.TrimSpace(p.UUID) != "" {
		md.SetLast("Код товара", p.UUID)
	}
	return md
}

func blockValue(b AttributeBlock) string {
	unit := strings.TrimSpace(b.Unit)
	value := ""
	switch {
	case len(b.Values) > 0:
		value = strings.TrimSpace(b.Values[0].Name)
	case b.Min != nil && b.Max != nil && !scalarEqual(b.Min, b.Max):
		value = asString(b.Min) + "–" + asString(b.Max)
	case b.Min != nil:
		value = asString(b.Min)
	}
	if unit != "" && value != "" && !strings.HasSuffix(value, unit) {
		value += unit
	}
	return strings.TrimSpace(value)
}

// scalarEqual compares two tolerant scalars numerically when possible and
// textually otherwise.
func scalarEqual(a, b any) bool {
	fa, oka := asFloat(a)
	fb, okb := asFloat(b)
	if oka && okb {
		return fa == fb
	}
	return asString(a) == asString(b)
}
