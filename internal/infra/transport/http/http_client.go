package http

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveURL resolves an endpoint path against an API base URL. A base
// without a trailing slash is treated as a directory.
func ResolveURL(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	if !base.IsAbs() {
		return "", fmt.Errorf("parse base url: %q is not absolute", baseURL)
	}

	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}

	return base.ResolveReference(ref).String(), nil
}
