package scraper

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

var (
	titleSelectors = []string{
		"h1#itemTitle",
		"h1.x-item-title__mainTitle",
		`h1[class*="item-title"]`,
	}
	descriptionSelectors = []string{
		"div#desc_div",
		"div#viTabs_0_is",
		"div#vi-desc-maincntr",
		`div[class*="item-desc"]`,
		`div[class*="d-item-desc"]`,
	}
	conditionSelectors = []string{
		".x-item-condition-text .ux-textspans",
		"#vi-itm-cond",
		`[itemprop="itemCondition"]`,
	}
)

// ldData holds JSON-LD objects keyed by @type.
type ldData map[string]map[string]any

func parseListing(doc *goquery.Document) *models.ScrapeResult {
	ld := parseJSONLD(doc)
	product := ld["Product"]
	offer := ld["Offer"]
	if o := firstObject(product["offers"]); o != nil {
		offer = o
	}

	result := &models.ScrapeResult{
		ItemSpecifics: itemSpecifics(doc),
	}

	result.Title = stringValue(product["name"])
	if result.Title == "" {
		result.Title = firstText(doc, titleSelectors)
	}

	if price, ok := priceValue(offer["price"]); ok {
		result.Price, result.HasPrice = price, true
	} else if content, ok := doc.Find(`[itemprop="price"]`).First().Attr("content"); ok {
		if price, ok := priceValue(content); ok {
			result.Price, result.HasPrice = price, true
		}
	}

	result.CategoryID = breadcrumbCategory(ld["BreadcrumbList"])

	result.ConditionText = firstText(doc, conditionSelectors)
	if result.ConditionText == "" {
		result.ConditionText = firstNonEmptyString(product["itemCondition"], offer["itemCondition"])
	}

	result.Images = images(doc, product)

	for _, sel := range descriptionSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if html, err := goquery.OuterHtml(s); err == nil {
				result.DescriptionHTML = html
				break
			}
		}
	}

	return result
}

func parseJSONLD(doc *goquery.Document) ldData {
	data := ldData{}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var parsed any
		if err := json.Unmarshal([]byte(s.Text()), &parsed); err != nil {
			return
		}
		collectLD(data, parsed)
	})
	return data
}

func collectLD(data ldData, v any) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectLD(data, item)
		}
	case map[string]any:
		if graph, ok := t["@graph"]; ok {
			collectLD(data, graph)
		}
		for _, typ := range typeNames(t["@type"]) {
			if _, seen := data[typ]; !seen {
				data[typ] = t
			}
		}
	}
}

func typeNames(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var names []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

func breadcrumbCategory(crumbs map[string]any) string {
	items, ok := crumbs["itemListElement"].([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	last, ok := items[len(items)-1].(map[string]any)
	if !ok {
		return ""
	}

	var id string
	switch item := last["item"].(type) {
	case string:
		id = item
	case map[string]any:
		id = firstNonEmptyString(item["@id"], item["url"])
	}
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

func images(doc *goquery.Document, product map[string]any) []string {
	var found []string
	seen := map[string]bool{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "http") && !seen[v] {
			seen[v] = true
			found = append(found, v)
		}
	}

	for _, key := range []string{"image", "images"} {
		switch v := product[key].(type) {
		case string:
			add(v)
		case []any:
			for _, item := range v {
				switch img := item.(type) {
				case string:
					add(img)
				case map[string]any:
					add(stringValue(img["url"]))
				}
			}
		case map[string]any:
			add(stringValue(v["url"]))
		}
	}

	if len(found) == 0 {
		if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
			add(content)
		}
	}
	return found
}

// itemSpecifics reads label/value pairs from both the current and the
// legacy item specifics layouts.
func itemSpecifics(doc *goquery.Document) map[string]string {
	specifics := map[string]string{}
	put := func(label, value string) {
		label = strings.TrimSuffix(cleanText(label), ":")
		value = cleanText(value)
		if label != "" && value != "" {
			specifics[label] = value
		}
	}

	doc.Find(".ux-labels-values").Each(func(_ int, s *goquery.Selection) {
		put(s.Find(".ux-labels-values__labels").Text(), s.Find(".ux-labels-values__values").Text())
	})
	doc.Find(".itemAttr td.attrLabels").Each(func(_ int, s *goquery.Selection) {
		put(s.Text(), s.NextFiltered("td").Text())
	})

	if len(specifics) == 0 {
		return nil
	}
	return specifics
}

func descriptionFrameURL(doc *goquery.Document, pageURL string) string {
	var src string
	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		v, ok := s.Attr("src")
		if ok && (id == "desc_ifr" || strings.Contains(strings.ToLower(v), "desc")) {
			src = v
			return false
		}
		return true
	})
	if src == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func frameDescription(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}
	html, err := body.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstNonEmptyString(values ...any) string {
	for _, v := range values {
		if s := stringValue(v); s != "" {
			return s
		}
	}
	return ""
}

func priceValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, t > 0
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, f > 0
	}
	return 0, false
}
