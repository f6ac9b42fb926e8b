package model

import (
	"net/http"
	"time"
)

// FetchResult is the immutable record of one fetch attempt. The dispatcher
// produces it, the classifier consumes it; nothing mutates it in between.
// Either Err is non-nil (transport failure, no HTTP response) or Status
// carries the response code.
type FetchResult struct {
	// URL is the normalized URL that was fetched.
	URL string

	// Status is the HTTP response status code, 0 on transport failure.
	Status int

	// Headers contains the response headers. Nil on transport failure.
	Headers http.Header

	// Body is the response body, truncated to the configured size limit.
	Body []byte

	// ContentType is the media type portion of the Content-Type header,
	// lowercased, without parameters. Empty if the header was absent.
	ContentType string

	// Elapsed is the wall time the attempt took.
	Elapsed time.Duration

	// Err is the transport error, nil when an HTTP response was received.
	Err error
}

// Location returns the redirect target from the Location header, or the
// empty string when the header is absent.
func (r FetchResult) Location() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Location")
}

// RetryAfter returns the Retry-After header value, or the empty string.
func (r FetchResult) RetryAfter() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Retry-After")
}

// Page holds the content extracted from a successfully fetched HTML page.
type Page struct {
	// Title is the text of the first <title> element, whitespace-collapsed.
	Title string

	// Text is the visible text content with scripts and styles removed.
	Text string

	// Links are the normalized absolute URLs of all crawlable anchors.
	// Duplicates within one page are already removed.
	Links []string
}
