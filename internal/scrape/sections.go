package scrape

import (
	"html"
	"regexp"
	"strings"

	"github.com/dkravets/weather-consensus/internal/common"
)

// Weather pages bury the current reading in markup that changes often.
// Instead of a DOM schema we collect the text sections most likely to carry
// the signal: the title, description meta tags, inline scripts that mention
// weather vocabulary, and finally the tag-stripped page body.

const (
	scriptKeepWhole = 50000
	scriptTruncated = 25000
	bodyTruncated   = 90000
)

var (
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaRe   = regexp.MustCompile(`(?is)<meta[^>]+(?:name|property)=["'](?:description|og:description|twitter:description)["'][^>]+content=["']([^"']+)["'][^>]*>`)
	scriptRe = regexp.MustCompile(`(?is)<script\b[^>]*>(.*?)</script>`)

	styleBlockRe  = regexp.MustCompile(`(?is)<style.*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script.*?</script>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	spaceRe       = regexp.MustCompile(`\s+`)

	// Literal escape sequences left inside inline script text.
	escapeReplacer = strings.NewReplacer(
		`\u00b0`, "°", `\u00B0`, "°",
		`\u2212`, "-",
		`\n`, " ", `\r`, " ", `\t`, " ",
	)
)

func signalSections(rawHTML string) []string {
	var sections []string

	if m := titleRe.FindStringSubmatch(rawHTML); m != nil {
		sections = append(sections, m[1])
	}

	for _, m := range metaRe.FindAllStringSubmatch(rawHTML, -1) {
		if m[1] != "" {
			sections = append(sections, m[1])
		}
	}

	for _, m := range scriptRe.FindAllStringSubmatch(rawHTML, -1) {
		body := m[1]
		if body == "" {
			continue
		}
		if !common.HasAny(strings.ToLower(body),
			"temp", "weather", "humidity", "pressure", "wind",
			"погод", "температур", "влажност", "давлен", "ветер") {
			continue
		}
		if len(body) <= scriptKeepWhole {
			sections = append(sections, body)
		} else {
			sections = append(sections, body[:scriptTruncated])
		}
	}

	text := Normalize(rawHTML)
	if len(text) > bodyTruncated {
		text = text[:bodyTruncated]
	}
	sections = append(sections, text)

	return sections
}

// Normalize strips tags, folds literal escape sequences, collapses
// whitespace and decodes HTML entities, producing plain scannable text.
func Normalize(input string) string {
	text := stripTags(input)
	text = escapeReplacer.Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "\u00a0", " ")
	// Entity decoding yields a true minus sign, which number parsing
	// expects as an ASCII hyphen.
	return strings.ReplaceAll(text, "\u2212", "-")
}

func stripTags(input string) string {
	out := styleBlockRe.ReplaceAllString(input, " ")
	out = scriptBlockRe.ReplaceAllString(out, " ")
	return tagRe.ReplaceAllString(out, " ")
}
