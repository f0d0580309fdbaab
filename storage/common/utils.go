package common

import (
	"net/url"
	"strings"
)

// QuoteWith wraps name in open and close, doubling any embedded close
// character.
func QuoteWith(open, close, name string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// WithSSLMode adds sslmode=mode to a PostgreSQL descriptor that does not
// name one. Both URL and key=value forms are handled.
func WithSSLMode(descriptor, mode string) string {
	if mode == "" {
		return descriptor
	}
	if strings.HasPrefix(descriptor, "postgres://") || strings.HasPrefix(descriptor, "postgresql://") {
		u, err := url.Parse(descriptor)
		if err != nil {
			return descriptor
		}
		q := u.Query()
		if q.Get("sslmode") != "" {
			return descriptor
		}
		q.Set("sslmode", mode)
		u.RawQuery = q.Encode()
		return u.String()
	}
	if strings.Contains(descriptor, "sslmode=") {
		return descriptor
	}
	if strings.TrimSpace(descriptor) == "" {
		return "sslmode=" + mode
	}
	return descriptor + " sslmode=" + mode
}
