// Package catalog models raw alkoteka product payloads and normalizes them
// into canonical item records.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawProduct is the detail payload returned by the product endpoint. No field
// is guaranteed to be present; extraction degrades to defaults instead of
// failing. Numeric fields arrive as json.Number so they can be re-rendered
// exactly as the API sent them.
type RawProduct struct {
	UUID              string           `json:"uuid"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	VendorCode        any              `json:"vendor_code"`
	Price             any              `json:"price"`
	PrevPrice         any              `json:"prev_price"`
	Available         any              `json:"available"`
	QuantityTotal     any              `json:"quantity_total"`
	ImageURL          string           `json:"image_url"`
	Category          *CategoryNode    `json:"category"`
	DescriptionBlocks []AttributeBlock `json:"description_blocks"`
	TextBlocks        []TextBlock      `json:"text_blocks"`
	FilterLabels      []FilterLabel    `json:"filter_labels"`
}

// CategoryNode is one hop of the self-referential category chain.
type CategoryNode struct {
	Name   string        `json:"name"`
	Parent *CategoryNode `json:"parent"`
}

// AttributeBlock is a structured specification entry. It carries either an
// enumerated value list or a numeric range/point via Min/Max.
type AttributeBlock struct {
	Code   string           `json:"code"`
	Title  string           `json:"title"`
	Unit   string           `json:"unit"`
	Min    any              `json:"min"`
	Max    any              `json:"max"`
	Values []AttributeValue `json:"values"`
}

// AttributeValue is one enumerated option of an AttributeBlock.
type AttributeValue struct {
	Name string `json:"name"`
}

// TextBlock is a free-form description entry.
type TextBlock struct {
	Content string `json:"content"`
}

// FilterLabel is a marketing filter chip attached to the product.
type FilterLabel struct {
	Filter string `json:"filter"`
	Title  string `json:"title"`
}

// DecodeRawProduct parses a detail "results" object. Numbers are decoded as
// json.Number so values like 0.5 keep their source formatting.
func DecodeRawProduct(data []byte) (*RawProduct, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p RawProduct
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &p, nil
}

// asString renders a tolerant scalar as text. Missing values become the empty
// string, numbers keep their JSON form.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// asFloat parses a tolerant scalar as a float. The second return reports
// whether the value was present and numeric; callers apply defaults explicitly.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asInt parses a tolerant scalar as an int. Fractional numbers truncate,
// non-integer strings do not parse.
func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}

// truthy mirrors the loose presence check used for optional scalars: nil,
// empty strings and numeric zero are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
