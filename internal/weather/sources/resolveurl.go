package sources

import (
	"net/url"
	"regexp"
)

// Scraped sources without a preset landing page are resolved through the
// site's own search page: the first matching result link wins, absolute
// links preferred over relative ones, and the search URL itself is the
// last resort so the generic extractor still gets a page to scan.

func firstAbsoluteLink(html string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

func firstRelativeLink(html string, patterns []*regexp.Regexp, base string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		baseURL, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(m[1])
		if err != nil {
			return ""
		}
		return baseURL.ResolveReference(ref).String()
	}
	return ""
}
