package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrMalformedURL is returned for strings that cannot be normalized into
// an absolute http(s) URL. Callers discard such links without recording
// an error; malformed hrefs are routine on real pages.
var ErrMalformedURL = errors.New("malformed URL")

// skipExtensions lists path suffixes that never contain crawlable HTML.
// URLs ending in one of these are filtered before they reach the frontier.
var skipExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".json": {}, ".xml": {}, ".rss": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {},
	".webp": {}, ".ico": {}, ".bmp": {}, ".tiff": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".odt": {}, ".epub": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".rar": {}, ".7z": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".ogg": {}, ".wav": {}, ".webm": {}, ".mkv": {},
	".exe": {}, ".dmg": {}, ".apk": {}, ".iso": {}, ".bin": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
}

// Normalize converts a raw URL string into its canonical form:
// lowercase scheme and host, no fragment, no default port, no trailing
// slash except on the root path. Only absolute http and https URLs are
// accepted; everything else returns ErrMalformedURL.
//
// Normalize is idempotent: applying it to its own output is a no-op.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformedURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, raw)
	}
	return normalize(u)
}

// ResolveAndNormalize resolves href against base and normalizes the
// result. It rejects javascript:, mailto:, tel:, data:, and pure fragment
// references with ErrMalformedURL.
func ResolveAndNormalize(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", ErrMalformedURL
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:", "ftp:", "file:"} {
		if strings.HasPrefix(lower, scheme) {
			return "", ErrMalformedURL
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, href)
	}
	if base == nil {
		return normalize(ref)
	}
	return normalize(base.ResolveReference(ref))
}

// normalize canonicalizes a parsed URL in place and renders it.
func normalize(u *url.URL) (string, error) {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrMalformedURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrMalformedURL)
	}

	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Domain extracts the lowercase host from a normalized URL. A
// non-default port stays part of the domain: two services on different
// ports of one host are scheduled, rate-limited, and banned separately.
func Domain(normalized string) (string, error) {
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, normalized)
	}
	return strings.ToLower(u.Host), nil
}

// Crawlable reports whether a normalized URL is worth fetching: it filters
// binary and media resources by extension and sitemap files. Rejected URLs
// are silently dropped, not recorded as disallowed.
func Crawlable(normalized string) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if _, skip := skipExtensions[ext]; skip {
		return false
	}
	base := strings.ToLower(path.Base(u.Path))
	if base == "sitemap.xml" || strings.HasPrefix(base, "sitemap") && strings.HasSuffix(base, ".xml") {
		return false
	}
	return true
}
