// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Kind
	}{
		{"github issue", "https://github.com/golang/go/issues/1", GitHub},
		{"github www", "https://www.github.com/golang/go/pull/2", GitHub},
		{"reddit post", "https://www.reddit.com/r/rust/comments/abc/xyz/", Reddit},
		{"old reddit", "https://old.reddit.com/r/golang/comments/abc/", Reddit},
		{"hacker news", "https://news.ycombinator.com/item?id=12345", HN},
		{"v2ex topic", "https://www.v2ex.com/t/123456", V2EX},
		{"plain blog", "https://blog.example.com/post", Web},
		{"ycombinator main site is not hn", "https://www.ycombinator.com/blog", Web},
		{"unparseable", "://nope", Web},
		{"empty", "", Web},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.url); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
