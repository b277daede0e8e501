package intent

import (
	"regexp"
	"strings"
)

// URL pattern families shared by the attribute, urlstruct, and navigation
// analyzers. Observed across fast-fashion and marketplace sites; the shapes
// are site-specific but stable within a site.
var (
	productURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)/productpage`),
		regexp.MustCompile(`(?i)/product/`),
		regexp.MustCompile(`(?i)/p/[\w-]+`),
		regexp.MustCompile(`(?i)/s/[\w-]+/\d+`),
	}
	categoryURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)/(men|women|kids|boys|girls|mens|womens)(/[\w-]+)*\.html`),
		regexp.MustCompile(`(?i)/browse/`),
		regexp.MustCompile(`(?i)/category/`),
		regexp.MustCompile(`(?i)/c/[\w-]+`),
	}
	homepageURLPattern = regexp.MustCompile(`(?i)^https?://[^/]+/?(index\.\w+)?$`)

	hostnamePattern = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?([^/:?#]+)`)

	genderSegmentPattern = regexp.MustCompile(`(?i)^(men|women|kids|boys|girls|mens|womens|ladies)$`)

	// Site-native IDs: numeric tail segments and common id query params.
	productIDPathPattern  = regexp.MustCompile(`(?i)/(?:p|s)/[\w-]+/(\d+)`)
	productIDTailPattern  = regexp.MustCompile(`(?i)[/.](\d{6,})(?:\.html)?/?$`)
	productIDQueryPattern = regexp.MustCompile(`(?i)[?&](?:pid|productid|sku|articlecode)=([\w-]+)`)
)

func isProductURL(url string) bool {
	for _, p := range productURLPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

func isCategoryURL(url string) bool {
	for _, p := range categoryURLPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

// extractHostname pulls the bare hostname out of a URL-ish string.
func extractHostname(url string) string {
	m := hostnamePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// deriveCategoryPath resolves the category path for a category classification.
// The URL structure is authoritative; the text-implied path is returned
// alongside so callers can preserve both signals when they disagree.
func deriveCategoryPath(text, pageURL string) (path, textImplied, urlImplied string) {
	urlImplied = categoryPathFromURL(pageURL)
	textImplied = categoryPathFromText(text)

	switch {
	case urlImplied != "":
		path = urlImplied
	case textImplied != "":
		path = textImplied
	}
	return path, textImplied, urlImplied
}

// categoryPathFromURL extracts a slash-joined category path from the URL
// path segments: the gender segment and everything under it, or the segments
// under /browse/, /category/, /c/.
func categoryPathFromURL(pageURL string) string {
	segments := pathSegments(pageURL)
	if len(segments) == 0 {
		return ""
	}

	for i, seg := range segments {
		if genderSegmentPattern.MatchString(seg) {
			return joinCategorySegments(segments[i:])
		}
		switch strings.ToLower(seg) {
		case "browse", "category", "c":
			if i+1 < len(segments) {
				return joinCategorySegments(segments[i+1:])
			}
		}
	}
	return ""
}

// categoryPathFromText slugs the element text into a single-level path,
// keeping only the leading gender token when one is present ("Men's Jeans"
// implies "men"). This is the weaker signal; URL structure overrides it.
func categoryPathFromText(text string) string {
	text = strings.ToLower(normalizeWhitespace(text))
	if text == "" {
		return ""
	}

	first := text
	if i := strings.IndexAny(text, " /"); i > 0 {
		first = text[:i]
	}
	if g := normalizeGender(strings.ReplaceAll(first, "'", "")); g != "" {
		return g
	}

	return strings.ReplaceAll(strings.ReplaceAll(text, "'", ""), " ", "-")
}

// normalizeGender maps gender-segment aliases onto their canonical token,
// or returns "" for non-gender input.
func normalizeGender(s string) string {
	switch strings.ToLower(s) {
	case "men", "mens":
		return "men"
	case "women", "womens", "ladies":
		return "women"
	case "kids":
		return "kids"
	case "boys":
		return "boys"
	case "girls":
		return "girls"
	default:
		return ""
	}
}

func joinCategorySegments(segments []string) string {
	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.ToLower(strings.TrimSuffix(seg, ".html"))
		if seg == "" {
			continue
		}
		if g := normalizeGender(seg); g != "" {
			seg = g
		}
		cleaned = append(cleaned, seg)
	}
	return strings.Join(cleaned, "/")
}

// Hostname pulls the bare hostname out of a URL-ish string. Exported for the
// ingestion pipeline, which keys domains on it.
func Hostname(url string) string { return extractHostname(url) }

// ProductIDFromURL extracts a site-native product ID from a URL, if any.
// Exported for the ingestion pipeline's attribute-to-product attachment.
func ProductIDFromURL(url string) string { return deriveProductID(url) }

// deriveProductID extracts a site-native product ID from the URL, if any.
func deriveProductID(pageURL string) string {
	if m := productIDPathPattern.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	if m := productIDQueryPattern.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	if m := productIDTailPattern.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	return ""
}

// pathSegments splits a URL's path into non-empty segments.
func pathSegments(pageURL string) []string {
	u := pageURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexByte(u, '/'); i >= 0 {
		u = u[i+1:]
	} else {
		return nil
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}

	parts := strings.Split(u, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// sameResource reports whether two URLs point at the same host and path,
// ignoring query and fragment.
func sameResource(a, b string) bool {
	return stripQuery(a) == stripQuery(b)
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
