// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package platform classifies URLs by hosting platform.
package platform

import (
	"net/url"
	"strings"
)

// Kind identifies the platform a URL belongs to.
type Kind string

const (
	GitHub Kind = "github"
	Reddit Kind = "reddit"
	HN     Kind = "hn"
	V2EX   Kind = "v2ex"
	Web    Kind = "web"
)

// Detect classifies a URL by hostname. Unrecognized hosts (and unparseable
// URLs) resolve to Web; there is no error path.
func Detect(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Web
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "v2ex.com"):
		return V2EX
	case strings.Contains(host, "news.ycombinator.com"):
		return HN
	case strings.Contains(host, "github.com"):
		return GitHub
	case strings.Contains(host, "reddit.com"):
		return Reddit
	default:
		return Web
	}
}
