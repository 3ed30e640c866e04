package search

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"atelier/api/internal/keycodec"
	"atelier/api/internal/store"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text     string
	Category string // empty = all categories
	Limit    int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Record is the flattened form of a content item pushed to the index.
type Record struct {
	DocID    string `json:"docId"`
	Category string `json:"category"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
}

const defaultLimit = 20

// DocID derives an index-safe identifier from a storage key. Index ids only
// allow [A-Za-z0-9_-], so the key is hex encoded.
func DocID(category, id string) string {
	return hex.EncodeToString([]byte(keycodec.Encode(category, id)))
}

// RecordFromItem flattens an item. The title comes from "title" or "name";
// every other string attribute is joined, in key order, into Text.
func RecordFromItem(category, id string, item store.Item) Record {
	rec := Record{DocID: DocID(category, id), Category: category, ID: id}
	rec.Title = firstNonBlank(stringValue(item["title"]), stringValue(item["name"]))

	keys := make([]string, 0, len(item))
	for k := range item {
		if k == store.IDField || k == "title" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = appendStrings(parts, item[k])
	}
	rec.Text = strings.Join(parts, "\n")
	return rec
}

func appendStrings(dst []string, v any) []string {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) != "" {
			dst = append(dst, val)
		}
	case []any:
		for _, elem := range val {
			dst = appendStrings(dst, elem)
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			dst = appendStrings(dst, val[k])
		}
	}
	return dst
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// snippet returns up to width runes of text around the first match of term.
func snippet(text, term string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(term))
	if idx < 0 || term == "" {
		return string(runes[:width]) + "…"
	}
	start := len([]rune(text[:idx])) - width/4
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
		start = max(0, end-width)
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}
