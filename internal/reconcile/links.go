package reconcile

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

// Links returns every <a href> in raw resolved against pageURL, in document
// order with duplicates kept.
func Links(raw, pageURL string) []string {
	doc, err := dom.Parse(raw)
	if err != nil {
		return []string{}
	}
	return LinksDocument(doc, pageURL)
}

// LinksDocument is Links over a parsed document. References resolve per
// RFC 3986, so "/a" on https://lu.ma/e1 is https://lu.ma/a and not
// https://lu.ma/e1/a. A reference that fails to parse is kept as written.
func LinksDocument(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		base = nil
	}
	links := []string{}
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		links = append(links, resolve(base, href))
	})
	return links
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
