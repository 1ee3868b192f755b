package cache

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ResponseToEntry builds an Entry from a response and its already-read body.
// Freshness comes from Cache-Control max-age, then Expires, then defaultTTL.
// Responses marked no-store are rejected.
func ResponseToEntry(resp *http.Response, body []byte, defaultTTL time.Duration) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}
	if strings.Contains(resp.Header.Get("Cache-Control"), "no-store") {
		return nil, fmt.Errorf("response is marked no-store")
	}

	now := time.Now()
	return &Entry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		Expires:    expiresAt(resp.Header, now, defaultTTL),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		CachedAt:   now,
	}, nil
}

// expiresAt computes the freshness deadline of a response.
func expiresAt(headers http.Header, now time.Time, defaultTTL time.Duration) time.Time {
	for _, directive := range strings.Split(headers.Get("Cache-Control"), ",") {
		directive = strings.TrimSpace(directive)
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	if expiresStr := headers.Get("Expires"); expiresStr != "" {
		if expires, err := http.ParseTime(expiresStr); err == nil {
			if expires.Before(now) {
				return now
			}
			return expires
		}
	}

	return now.Add(defaultTTL)
}

// AddConditionalHeaders adds If-None-Match when the entry carries an ETag.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil || entry.ETag == "" {
		return
	}
	req.Header.Set("If-None-Match", entry.ETag)
}
